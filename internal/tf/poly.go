// Package tf implements rational transfer functions in the Laplace domain:
// real polynomial arithmetic, pole and zero extraction, and fixed-step
// time-domain simulation of proper systems.
package tf

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// coeffTol is the magnitude below which a coefficient counts as zero.
const coeffTol = 1e-12

// Poly is a real polynomial in s with coefficients in descending degree
// order: Poly{1, 3, 2} is s^2 + 3s + 2. The canonical zero polynomial is
// Poly{0}.
type Poly []float64

// NewPoly copies coeffs and trims leading near-zero terms.
func NewPoly(coeffs ...float64) Poly {
	p := make(Poly, len(coeffs))
	copy(p, coeffs)
	return p.trim()
}

func (p Poly) trim() Poly {
	i := 0
	for i < len(p)-1 && math.Abs(p[i]) < coeffTol {
		i++
	}
	if i == 0 && len(p) > 0 {
		return p
	}
	if len(p) == 0 {
		return Poly{0}
	}
	return p[i:]
}

func (p Poly) Degree() int { return len(p.trim()) - 1 }

func (p Poly) IsZero() bool {
	t := p.trim()
	return len(t) == 1 && math.Abs(t[0]) < coeffTol
}

// Lead returns the leading (highest degree) coefficient.
func (p Poly) Lead() float64 {
	t := p.trim()
	return t[0]
}

// Eval evaluates the polynomial at s by Horner's rule.
func (p Poly) Eval(s float64) float64 {
	v := 0.0
	for _, c := range p {
		v = v*s + c
	}
	return v
}

// EvalC evaluates the polynomial at a complex point.
func (p Poly) EvalC(s complex128) complex128 {
	v := complex(0, 0)
	for _, c := range p {
		v = v*s + complex(c, 0)
	}
	return v
}

func (p Poly) Add(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	for i := 0; i < len(p); i++ {
		out[n-len(p)+i] += p[i]
	}
	for i := 0; i < len(q); i++ {
		out[n-len(q)+i] += q[i]
	}
	return out.trim()
}

func (p Poly) Mul(q Poly) Poly {
	if p.IsZero() || q.IsZero() {
		return Poly{0}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out.trim()
}

func (p Poly) Scale(k float64) Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = k * c
	}
	return out.trim()
}

// Monic divides through by the leading coefficient.
func (p Poly) Monic() Poly {
	t := p.trim()
	lead := t[0]
	if math.Abs(lead) < coeffTol {
		return Poly{0}
	}
	return t.Scale(1 / lead)
}

// FromRoots expands prod(s - r_i) into real coefficients. The roots must be
// closed under complex conjugation; a residual imaginary part above
// tolerance is reported as an error.
func FromRoots(roots []complex128) (Poly, error) {
	acc := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(acc)+1)
		for i, c := range acc {
			next[i] += c
			next[i+1] -= c * r
		}
		acc = next
	}
	out := make(Poly, len(acc))
	scale := 0.0
	for _, c := range acc {
		if m := cmplx.Abs(c); m > scale {
			scale = m
		}
	}
	if scale == 0 {
		scale = 1
	}
	for i, c := range acc {
		if math.Abs(imag(c)) > 1e-9*scale {
			return nil, fmt.Errorf("roots are not closed under conjugation (residual imaginary part %g)", imag(c))
		}
		out[i] = real(c)
	}
	return out.trim(), nil
}

// ConjugateClosed reports whether every complex root has its conjugate in
// the set, within tolerance.
func ConjugateClosed(roots []complex128) bool {
	used := make([]bool, len(roots))
	for i, r := range roots {
		if used[i] || math.Abs(imag(r)) < 1e-12 {
			continue
		}
		found := false
		for j := i + 1; j < len(roots); j++ {
			if used[j] {
				continue
			}
			if cmplx.Abs(roots[j]-cmplx.Conj(r)) < 1e-9*(1+cmplx.Abs(r)) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (p Poly) String() string {
	t := p.trim()
	if t.IsZero() {
		return "0"
	}
	var b strings.Builder
	deg := len(t) - 1
	first := true
	for i, c := range t {
		if math.Abs(c) < coeffTol {
			continue
		}
		pow := deg - i
		if !first {
			if c >= 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
				c = -c
			}
		} else if c < 0 {
			b.WriteString("-")
			c = -c
		}
		switch {
		case pow == 0:
			fmt.Fprintf(&b, "%.4g", c)
		case math.Abs(c-1) < coeffTol:
			b.WriteString(powString(pow))
		default:
			fmt.Fprintf(&b, "%.4g%s", c, powString(pow))
		}
		first = false
	}
	return b.String()
}

func powString(pow int) string {
	if pow == 1 {
		return "s"
	}
	return fmt.Sprintf("s^%d", pow)
}
