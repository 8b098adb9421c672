package loop

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure families. Callers branch with
// errors.Is; the typed wrappers below carry the detail.
var (
	ErrValidation = errors.New("loop: invalid input")
	ErrModel      = errors.New("loop: model not simulatable")
	ErrInfeasible = errors.New("loop: tuning infeasible")
	ErrEmptyInput = errors.New("loop: empty input")
)

// ValidationError reports a parameter that fails its range or type check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("loop: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ModelError reports a structurally valid plant that cannot be simulated,
// such as an improper transfer function or a degenerate denominator.
type ModelError struct {
	Op     string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("loop: %s: %s", e.Op, e.Reason)
}

func (e *ModelError) Unwrap() error { return ErrModel }

// InfeasibleError reports a tuning request with no admissible solution,
// such as pole placement on a plant whose closed-loop degree exceeds the
// number of free gains.
type InfeasibleError struct {
	Strategy string
	Reason   string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("loop: %s: %s", e.Strategy, e.Reason)
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

// EmptyInputError reports an operation applied to an empty collection,
// such as a comparison over zero candidates.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("loop: %s: nothing to operate on", e.Op)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }
