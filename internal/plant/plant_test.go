package plant

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/loop"
)

func TestFromSpecDCGain(t *testing.T) {
	tests := []struct {
		name string
		spec loop.Spec
		want float64
	}{
		{"first order", loop.FirstOrderSpec(3.0, 0.5), 3.0},
		{"second order", loop.SecondOrderSpec(2.0, 4.0, 0.7), 2.0},
		{"delayed", loop.DelayedSpec(1.5, 1.0, 0.5), 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromSpec(tt.spec)
			if err != nil {
				t.Fatalf("FromSpec failed: %v", err)
			}
			if got := g.DCGain(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DCGain = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestFromSpecIntegrator(t *testing.T) {
	g, err := FromSpec(loop.IntegratorSpec(2.0))
	if err != nil {
		t.Fatalf("FromSpec failed: %v", err)
	}
	if got := g.DCGain(); !math.IsInf(got, 1) {
		t.Errorf("integrator DCGain = %g, want +Inf", got)
	}
	poles, err := g.Poles()
	if err != nil {
		t.Fatalf("Poles failed: %v", err)
	}
	if len(poles) != 1 || poles[0] != 0 {
		t.Errorf("poles = %v, want [0]", poles)
	}
}

func TestDelayedHasRHPZero(t *testing.T) {
	g, err := FromSpec(loop.DelayedSpec(1.0, 1.0, 0.5))
	if err != nil {
		t.Fatalf("FromSpec failed: %v", err)
	}
	zeros, err := g.Zeros()
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	// Pade zero at +2/L = +4.
	if len(zeros) != 1 || math.Abs(real(zeros[0])-4) > 1e-9 {
		t.Errorf("zeros = %v, want [+4]", zeros)
	}
}

func TestHigherOrderConjugacy(t *testing.T) {
	spec := loop.HigherOrderSpec(1.0, []complex128{complex(-0.5, 1), -1}, nil)
	if _, err := FromSpec(spec); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("unpaired pole: error = %v, want ErrValidation", err)
	}

	ok := loop.HigherOrderSpec(1.0, []complex128{complex(-0.5, 1), complex(-0.5, -1), -2}, nil)
	g, err := FromSpec(ok)
	if err != nil {
		t.Fatalf("FromSpec failed: %v", err)
	}
	if g.Den.Degree() != 3 {
		t.Errorf("denominator degree = %d, want 3", g.Den.Degree())
	}
}

func TestFromSpecInvalid(t *testing.T) {
	if _, err := FromSpec(loop.FirstOrderSpec(1.0, -1)); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("negative tau: error = %v, want ErrValidation", err)
	}
	if _, err := FromSpec(loop.Spec{Kind: loop.Kind(99), K: 1}); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("unknown kind: error = %v, want ErrValidation", err)
	}
}

func TestBuilderCoverage(t *testing.T) {
	for _, k := range loop.AllKinds {
		if _, ok := builders[k]; !ok {
			t.Errorf("kind %s has no builder", k)
		}
	}
}
