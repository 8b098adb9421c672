package tf

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
)

// TF is a rational transfer function Num(s)/Den(s). Improper functions are
// representable (the ideal PID itself is improper) but only proper ones can
// be simulated.
type TF struct {
	Num Poly
	Den Poly
}

// New builds a transfer function, trimming both polynomials.
func New(num, den Poly) (TF, error) {
	num = num.trim()
	den = den.trim()
	if den.IsZero() {
		return TF{}, &loop.ModelError{Op: "transfer function", Reason: "denominator is zero"}
	}
	return TF{Num: num, Den: den}, nil
}

// IsProper reports deg Num <= deg Den. Proper systems have a state-space
// realization with at most a direct feedthrough term.
func (g TF) IsProper() bool {
	if g.Num.IsZero() {
		return true
	}
	return g.Num.Degree() <= g.Den.Degree()
}

// IsStrictlyProper reports deg Num < deg Den.
func (g TF) IsStrictlyProper() bool {
	if g.Num.IsZero() {
		return true
	}
	return g.Num.Degree() < g.Den.Degree()
}

// DCGain returns Num(0)/Den(0). Integrating systems report +/-Inf, and a
// 0/0 form reports NaN.
func (g TF) DCGain() float64 {
	n := g.Num.Eval(0)
	d := g.Den.Eval(0)
	if d == 0 {
		if n == 0 {
			return math.NaN()
		}
		return math.Inf(int(math.Copysign(1, n)))
	}
	return n / d
}

// Series returns g followed by h: the product of the two functions.
func Series(g, h TF) TF {
	return TF{Num: g.Num.Mul(h.Num), Den: g.Den.Mul(h.Den)}
}

// Feedback closes a unity negative feedback loop around an open-loop l:
// l / (1 + l).
func Feedback(l TF) TF {
	return TF{Num: l.Num, Den: l.Den.Add(l.Num)}
}

// Poles returns the roots of the denominator.
func (g TF) Poles() ([]complex128, error) {
	return Roots(g.Den)
}

// Zeros returns the roots of the numerator.
func (g TF) Zeros() ([]complex128, error) {
	return Roots(g.Num)
}

func (g TF) String() string {
	return fmt.Sprintf("(%s) / (%s)", g.Num, g.Den)
}
