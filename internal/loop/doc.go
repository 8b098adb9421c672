// Package loop provides the core value types for closed-loop PID simulation.
//
// The package defines the vocabulary shared by every other package:
//
//   - [Spec]: a plant archetype plus its named parameters
//   - [Gains]: a PID gain triple (Kp, Ki, Kd), always fully populated
//   - [Trace]: a fixed-step simulation record (time, output, forcing input)
//   - [Mode]: servo (reference tracking) or regulatory (disturbance rejection)
//   - [Config]: simulation horizon, step and input amplitude
//
// # Gains are never partial
//
// Every tuning path either returns a valid [Gains] or a typed error;
// [DefaultGains] is the documented fallback when the caller supplies nothing.
// Code that consumes a Gains value may assume all three fields are defined
// and non-negative once Validate has passed.
//
// # Errors
//
// The four recoverable error kinds ([ValidationError], [ModelError],
// [InfeasibleError], [EmptyInputError]) each unwrap to a package sentinel so
// callers can branch with errors.Is without inspecting messages.
package loop
