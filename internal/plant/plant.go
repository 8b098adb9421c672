// Package plant builds transfer functions for the supported plant
// archetypes.
package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/tf"
)

type builder func(loop.Spec) (tf.TF, error)

// builders maps every plant kind to its transfer function. init checks the
// map against loop.AllKinds so a new kind cannot be added without a branch
// here.
var builders = map[loop.Kind]builder{
	loop.FirstOrder:  buildFirstOrder,
	loop.SecondOrder: buildSecondOrder,
	loop.Integrator:  buildIntegrator,
	loop.Delayed:     buildDelayed,
	loop.HigherOrder: buildHigherOrder,
}

func init() {
	for _, k := range loop.AllKinds {
		if _, ok := builders[k]; !ok {
			panic(fmt.Sprintf("plant: no builder for kind %s", k))
		}
	}
}

// FromSpec validates s and builds its transfer function.
func FromSpec(s loop.Spec) (tf.TF, error) {
	if err := s.Validate(); err != nil {
		return tf.TF{}, err
	}
	build, ok := builders[s.Kind]
	if !ok {
		return tf.TF{}, &loop.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown plant kind %d", int(s.Kind))}
	}
	return build(s)
}

// K / (tau*s + 1)
func buildFirstOrder(s loop.Spec) (tf.TF, error) {
	return tf.New(tf.NewPoly(s.K), tf.NewPoly(s.Tau, 1))
}

// K * wn^2 / (s^2 + 2*zeta*wn*s + wn^2)
func buildSecondOrder(s loop.Spec) (tf.TF, error) {
	wn2 := s.Wn * s.Wn
	return tf.New(tf.NewPoly(s.K*wn2), tf.NewPoly(1, 2*s.Zeta*s.Wn, wn2))
}

// K / s
func buildIntegrator(s loop.Spec) (tf.TF, error) {
	return tf.New(tf.NewPoly(s.K), tf.NewPoly(1, 0))
}

// First-order lag with the dead time folded in as a first-order Pade
// approximant: K * (1 - L/2*s) / ((tau*s + 1)(L/2*s + 1)). The approximant
// puts a right half-plane zero at 2/L, which is what makes dead time hard
// to control.
func buildDelayed(s loop.Spec) (tf.TF, error) {
	half := s.Delay / 2
	num := tf.NewPoly(-half, 1).Scale(s.K)
	den := tf.NewPoly(s.Tau, 1).Mul(tf.NewPoly(half, 1))
	return tf.New(num, den)
}

// K * prod(s - z_i) / prod(s - p_i)
func buildHigherOrder(s loop.Spec) (tf.TF, error) {
	if !tf.ConjugateClosed(s.Poles) {
		return tf.TF{}, &loop.ValidationError{Field: "poles", Reason: "complex poles must come in conjugate pairs"}
	}
	if !tf.ConjugateClosed(s.Zeros) {
		return tf.TF{}, &loop.ValidationError{Field: "zeros", Reason: "complex zeros must come in conjugate pairs"}
	}
	den, err := tf.FromRoots(s.Poles)
	if err != nil {
		return tf.TF{}, &loop.ValidationError{Field: "poles", Reason: err.Error()}
	}
	num, err := tf.FromRoots(s.Zeros)
	if err != nil {
		return tf.TF{}, &loop.ValidationError{Field: "zeros", Reason: err.Error()}
	}
	return tf.New(num.Scale(s.K), den)
}
