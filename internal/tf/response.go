package tf

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
)

// maxStepEigen caps h*|lambda| per integration micro-step. RK4 is stable on
// the negative real axis out to about 2.78; staying well inside keeps the
// step accurate as well as stable.
const maxStepEigen = 0.5

// stateSpace is the controllable canonical realization of a proper transfer
// function: a holds the monic denominator coefficients ascending in degree,
// b the output row, d the direct feedthrough.
type stateSpace struct {
	a []float64
	b []float64
	d float64
}

func realize(g TF) (stateSpace, error) {
	if !g.IsProper() {
		return stateSpace{}, &loop.ModelError{Op: "realize", Reason: fmt.Sprintf("improper transfer function %s", g)}
	}
	den := g.Den.trim()
	lead := den.Lead()
	if math.Abs(lead) < coeffTol {
		return stateSpace{}, &loop.ModelError{Op: "realize", Reason: "denominator is zero"}
	}
	den = den.Monic()
	num := g.Num.Scale(1 / lead)
	n := den.Degree()

	var ss stateSpace
	if !num.IsZero() && num.Degree() == n {
		ss.d = num.Lead()
		num = num.Add(den.Scale(-ss.d))
	}
	if n == 0 {
		return ss, nil
	}

	ss.a = make([]float64, n)
	for i := 0; i < n; i++ {
		ss.a[i] = den[n-i]
	}
	ss.b = make([]float64, n)
	if !num.IsZero() {
		m := num.Degree()
		for i := 0; i <= m; i++ {
			ss.b[i] = num[m-i]
		}
	}
	return ss, nil
}

func (ss stateSpace) derive(x []float64, u float64, dst []float64) {
	n := len(ss.a)
	for i := 0; i < n-1; i++ {
		dst[i] = x[i+1]
	}
	top := u
	for i, a := range ss.a {
		top -= a * x[i]
	}
	dst[n-1] = top
}

func (ss stateSpace) output(x []float64, u float64) float64 {
	y := ss.d * u
	for i, b := range ss.b {
		y += b * x[i]
	}
	return y
}

type rk4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
}

func (r *rk4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

// step advances x in place by h under constant input u.
func (r *rk4) step(ss stateSpace, x []float64, u, h float64) {
	n := len(x)
	r.ensureScratch(n)

	ss.derive(x, u, r.k1)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k1[i]
	}
	ss.derive(r.scratch, u, r.k2)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*r.k2[i]
	}
	ss.derive(r.scratch, u, r.k3)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*r.k3[i]
	}
	ss.derive(r.scratch, u, r.k4)

	h6 := h / 6.0
	for i := 0; i < n; i++ {
		x[i] += h6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
}

// Simulator integrates a proper transfer function sample by sample, with
// the input held constant across each sample. It carries the state between
// calls, so arbitrary input sequences (relay feedback, a discrete
// controller in the loop) can be driven through it.
type Simulator struct {
	ss    stateSpace
	bound float64
	x     []float64
	rk    rk4
}

func NewSimulator(g TF) (*Simulator, error) {
	ss, err := realize(g)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		ss:    ss,
		bound: MaxAbsRoot(g.Den),
		x:     make([]float64, len(ss.a)),
	}, nil
}

// Reset returns the state to rest.
func (s *Simulator) Reset() {
	for i := range s.x {
		s.x[i] = 0
	}
}

// Output reports the current output under input u without advancing time.
func (s *Simulator) Output(u float64) float64 {
	return s.ss.output(s.x, u)
}

// Step advances the state by dt with input u held, subdividing internally
// so fast poles stay inside the integrator's stability region, and returns
// the output at the end of the interval.
func (s *Simulator) Step(u, dt float64) float64 {
	if len(s.x) == 0 {
		return s.ss.d * u
	}
	sub := int(math.Ceil(dt * s.bound / maxStepEigen))
	if sub < 1 {
		sub = 1
	}
	h := dt / float64(sub)
	for i := 0; i < sub; i++ {
		s.rk.step(s.ss, s.x, u, h)
	}
	return s.ss.output(s.x, u)
}

// StepResponse integrates the response of g to a step of the given
// amplitude applied at t=0, sampled at t = 0, dt, ..., duration.
func (g TF) StepResponse(duration, dt, amplitude float64) ([]float64, error) {
	if dt <= 0 || math.IsNaN(dt) {
		return nil, &loop.ValidationError{Field: "step", Reason: fmt.Sprintf("step must be positive, got %g", dt)}
	}
	sim, err := NewSimulator(g)
	if err != nil {
		return nil, err
	}

	samples := int(math.Round(duration/dt)) + 1
	if samples < 1 {
		samples = 1
	}
	y := make([]float64, samples)
	y[0] = sim.Output(amplitude)
	for k := 1; k < samples; k++ {
		y[k] = sim.Step(amplitude, dt)
	}
	return y, nil
}
