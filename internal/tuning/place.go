package tuning

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/tf"
)

// gainTol absorbs solver round-off: solution components this close to zero
// are treated as exactly zero.
const gainTol = 1e-9

// PlacePoles solves for gains that put the closed-loop characteristic
// roots at the desired locations. With plant N/D and the PID numerator
// Kd*s^2 + Kp*s + Ki, the characteristic polynomial is
//
//	D(s)*s + N(s)*(Kd*s^2 + Kp*s + Ki) = lambda * prod(s - p_i)
//
// which is linear in (Kd, Kp, Ki, lambda) with lambda a free scale. The
// system is square for closed-loop order 3 (second-order and delayed
// plants); order 2 (first-order, integrator) drops Kd and solves the PI
// form. Anything else is out of reach for a PID and reported infeasible,
// as are singular systems, target sets not closed under conjugation, and
// solutions that need a negative gain.
func PlacePoles(spec loop.Spec, desired []complex128) (loop.Gains, error) {
	if err := spec.Validate(); err != nil {
		return loop.Gains{}, err
	}
	g, err := plant.FromSpec(spec)
	if err != nil {
		return loop.Gains{}, err
	}

	// Closed-loop order with the full PID in place.
	order := g.Den.Degree() + 1
	if d := g.Num.Degree() + 2; d > order {
		order = d
	}
	if order > 3 {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   fmt.Sprintf("closed-loop order %d is beyond what three gains can place", order),
		}
	}
	if len(desired) != order {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   fmt.Sprintf("this plant closes at order %d, got %d target poles", order, len(desired)),
		}
	}
	if !tf.ConjugateClosed(desired) {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   "target poles must be closed under conjugation",
		}
	}
	w, err := tf.FromRoots(desired)
	if err != nil {
		return loop.Gains{}, &loop.InfeasibleError{Strategy: "pole placement", Reason: err.Error()}
	}

	dgs := g.Den.Mul(tf.NewPoly(1, 0))
	cols := []tf.Poly{
		g.Num.Mul(tf.NewPoly(1, 0, 0)), // kd
		g.Num.Mul(tf.NewPoly(1, 0)),    // kp
		g.Num,                          // ki
	}
	withKd := order == 3
	if !withKd {
		cols = cols[1:]
	}

	// One equation per coefficient power 0..order, one unknown per column
	// plus the scale.
	rows := order + 1
	unknowns := len(cols) + 1
	a := mat.NewDense(rows, unknowns, nil)
	b := mat.NewVecDense(rows, nil)
	for pow := 0; pow <= order; pow++ {
		row := order - pow
		for j, col := range cols {
			a.Set(row, j, coeff(col, pow))
		}
		a.Set(row, unknowns-1, -coeff(w, pow))
		b.SetVec(row, -coeff(dgs, pow))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   "the placement system is singular for this plant",
		}
	}

	lambda := snap(sol.AtVec(unknowns - 1))
	if math.Abs(lambda) < gainTol {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   "placement degenerates to a zero characteristic polynomial",
		}
	}

	var gains loop.Gains
	if withKd {
		gains = loop.Gains{Kd: snap(sol.AtVec(0)), Kp: snap(sol.AtVec(1)), Ki: snap(sol.AtVec(2))}
	} else {
		gains = loop.Gains{Kp: snap(sol.AtVec(0)), Ki: snap(sol.AtVec(1))}
	}
	if gains.Kp < 0 || gains.Ki < 0 || gains.Kd < 0 {
		return loop.Gains{}, &loop.InfeasibleError{
			Strategy: "pole placement",
			Reason:   fmt.Sprintf("these poles need a negative gain (%s)", gains),
		}
	}
	if err := gains.Validate(); err != nil {
		return loop.Gains{}, &loop.InfeasibleError{Strategy: "pole placement", Reason: err.Error()}
	}
	return gains, nil
}

// coeff returns the coefficient of s^pow in p.
func coeff(p tf.Poly, pow int) float64 {
	idx := len(p) - 1 - pow
	if idx < 0 {
		return 0
	}
	return p[idx]
}

func snap(v float64) float64 {
	if math.Abs(v) < gainTol {
		return 0
	}
	return v
}
