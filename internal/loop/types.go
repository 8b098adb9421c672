package loop

import (
	"fmt"
	"math"
)

// Kind identifies a plant archetype.
type Kind int

const (
	FirstOrder Kind = iota
	SecondOrder
	Integrator
	Delayed
	HigherOrder
)

// AllKinds lists every defined archetype. Tables keyed by Kind are checked
// against this slice for completeness at startup.
var AllKinds = []Kind{FirstOrder, SecondOrder, Integrator, Delayed, HigherOrder}

var kindNames = map[Kind]string{
	FirstOrder:  "first_order",
	SecondOrder: "second_order",
	Integrator:  "integrator",
	Delayed:     "delayed",
	HigherOrder: "higher_order",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown plant kind %q", s)}
}

// Spec describes one plant. Which fields matter depends on Kind:
// first_order uses K and Tau; second_order uses K, Wn and Zeta; integrator
// uses K; delayed uses K, Tau and Delay; higher_order uses K, Poles and
// Zeros. A Spec is a value and is never mutated after construction.
type Spec struct {
	Kind  Kind
	K     float64 // static gain
	Tau   float64 // time constant [s]
	Zeta  float64 // damping ratio
	Wn    float64 // natural frequency [rad/s]
	Delay float64 // dead time [s]
	Poles []complex128
	Zeros []complex128
}

func FirstOrderSpec(k, tau float64) Spec {
	return Spec{Kind: FirstOrder, K: k, Tau: tau}
}

func SecondOrderSpec(k, wn, zeta float64) Spec {
	return Spec{Kind: SecondOrder, K: k, Wn: wn, Zeta: zeta}
}

func IntegratorSpec(k float64) Spec {
	return Spec{Kind: Integrator, K: k}
}

func DelayedSpec(k, tau, delay float64) Spec {
	return Spec{Kind: Delayed, K: k, Tau: tau, Delay: delay}
}

func HigherOrderSpec(k float64, poles, zeros []complex128) Spec {
	return Spec{Kind: HigherOrder, K: k, Poles: poles, Zeros: zeros}
}

// Validate checks the parameters required by the archetype. It does not
// check pole conjugacy; that surfaces when the transfer function is built.
func (s Spec) Validate() error {
	if !isFinite(s.K) || s.K <= 0 {
		return &ValidationError{Field: "K", Reason: fmt.Sprintf("gain must be positive, got %g", s.K)}
	}
	switch s.Kind {
	case FirstOrder:
		if !isFinite(s.Tau) || s.Tau <= 0 {
			return &ValidationError{Field: "tau", Reason: fmt.Sprintf("time constant must be positive, got %g", s.Tau)}
		}
	case SecondOrder:
		if !isFinite(s.Wn) || s.Wn <= 0 {
			return &ValidationError{Field: "wn", Reason: fmt.Sprintf("natural frequency must be positive, got %g", s.Wn)}
		}
		if !isFinite(s.Zeta) || s.Zeta < 0 {
			return &ValidationError{Field: "zeta", Reason: fmt.Sprintf("damping ratio must be non-negative, got %g", s.Zeta)}
		}
	case Integrator:
		// gain already checked
	case Delayed:
		if !isFinite(s.Tau) || s.Tau <= 0 {
			return &ValidationError{Field: "tau", Reason: fmt.Sprintf("time constant must be positive, got %g", s.Tau)}
		}
		if !isFinite(s.Delay) || s.Delay <= 0 {
			return &ValidationError{Field: "delay", Reason: fmt.Sprintf("dead time must be positive, got %g", s.Delay)}
		}
	case HigherOrder:
		if len(s.Poles) == 0 {
			return &ValidationError{Field: "poles", Reason: "higher-order plant needs at least one pole"}
		}
		if len(s.Zeros) >= len(s.Poles) {
			return &ValidationError{Field: "zeros", Reason: "plant must be strictly proper (fewer zeros than poles)"}
		}
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown plant kind %d", int(s.Kind))}
	}
	return nil
}

// Gains holds the PID triple. All three fields are always defined;
// construction paths that have nothing better fall back to DefaultGains.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// DefaultGains is the fallback triple applied whenever no tuning branch
// produced a value: pure proportional with unit gain.
func DefaultGains() Gains {
	return Gains{Kp: 1.0, Ki: 0.0, Kd: 0.0}
}

func (g Gains) Validate() error {
	for _, f := range []struct {
		name string
		val  float64
	}{{"kp", g.Kp}, {"ki", g.Ki}, {"kd", g.Kd}} {
		if !isFinite(f.val) || f.val < 0 {
			return &ValidationError{Field: f.name, Reason: fmt.Sprintf("gain must be finite and non-negative, got %g", f.val)}
		}
	}
	return nil
}

func (g Gains) String() string {
	return fmt.Sprintf("kp=%.4g ki=%.4g kd=%.4g", g.Kp, g.Ki, g.Kd)
}

// Mode selects which closed-loop transfer function is simulated.
type Mode int

const (
	// Servo tracks a reference step: C*G / (1 + C*G).
	Servo Mode = iota
	// Regulatory rejects a load disturbance at the plant input: G / (1 + C*G).
	Regulatory
)

func (m Mode) String() string {
	switch m {
	case Servo:
		return "servo"
	case Regulatory:
		return "regulatory"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "servo":
		return Servo, nil
	case "regulatory":
		return Regulatory, nil
	}
	return 0, &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// Config bounds one simulation run.
type Config struct {
	Duration  float64 // horizon [s]
	Step      float64 // sample period [s]
	Amplitude float64 // size of the step applied at t=0
}

func DefaultConfig() Config {
	return Config{Duration: 10.0, Step: 0.02, Amplitude: 1.0}
}

func (c Config) Validate() error {
	if !isFinite(c.Step) || c.Step <= 0 {
		return &ValidationError{Field: "step", Reason: fmt.Sprintf("step must be positive, got %g", c.Step)}
	}
	if !isFinite(c.Duration) || c.Duration < c.Step {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("duration must be at least one step, got %g", c.Duration)}
	}
	if !isFinite(c.Amplitude) || c.Amplitude == 0 {
		return &ValidationError{Field: "amplitude", Reason: fmt.Sprintf("amplitude must be finite and non-zero, got %g", c.Amplitude)}
	}
	return nil
}

// Samples reports the trace length a run with this config produces:
// one sample at t=0 plus one per step.
func (c Config) Samples() int {
	return int(math.Round(c.Duration/c.Step)) + 1
}

// Trace is one simulated response: uniform time grid, plant output, and the
// forcing signal (reference for servo, disturbance for regulatory).
// Traces are read-only once returned.
type Trace struct {
	Time   []float64
	Output []float64
	Input  []float64
	Mode   Mode
}

func (t Trace) Len() int { return len(t.Time) }

// Step reports the uniform sample period, 0 for traces shorter than two
// samples.
func (t Trace) Step() float64 {
	if len(t.Time) < 2 {
		return 0
	}
	return t.Time[1] - t.Time[0]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
