package tuning

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/sim"
)

// polesMatch compares against the sorted order ClosedLoopPoles reports:
// ascending real part, then imaginary part.
func polesMatch(t *testing.T, got, want []complex128, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d poles, want %d", len(got), len(want))
	}
	for i := range got {
		if cmplx.Abs(got[i]-want[i]) > tol {
			t.Errorf("pole[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPlacePolesFirstOrderDropsDerivative(t *testing.T) {
	spec := loop.FirstOrderSpec(1, 0.5)
	got, err := PlacePoles(spec, []complex128{-2, -3})
	if err != nil {
		t.Fatalf("PlacePoles error: %v", err)
	}
	gainsClose(t, got, loop.Gains{Kp: 1.5, Ki: 3, Kd: 0}, 1e-9)

	poles, err := sim.ClosedLoopPoles(spec, got)
	if err != nil {
		t.Fatalf("ClosedLoopPoles error: %v", err)
	}
	polesMatch(t, poles, []complex128{-3, -2}, 1e-6)
}

func TestPlacePolesIntegrator(t *testing.T) {
	spec := loop.IntegratorSpec(1)
	got, err := PlacePoles(spec, []complex128{-1, -2})
	if err != nil {
		t.Fatalf("PlacePoles error: %v", err)
	}
	gainsClose(t, got, loop.Gains{Kp: 3, Ki: 2, Kd: 0}, 1e-9)
}

func TestPlacePolesSecondOrder(t *testing.T) {
	spec := loop.SecondOrderSpec(1, 1, 0.2)
	desired := []complex128{-1, complex(-1, 1), complex(-1, -1)}
	got, err := PlacePoles(spec, desired)
	if err != nil {
		t.Fatalf("PlacePoles error: %v", err)
	}
	// D*s + (Kd*s^2 + Kp*s + Ki) = (s+1)(s^2+2s+2) coefficient match.
	gainsClose(t, got, loop.Gains{Kp: 3, Ki: 2, Kd: 2.6}, 1e-9)

	poles, err := sim.ClosedLoopPoles(spec, got)
	if err != nil {
		t.Fatalf("ClosedLoopPoles error: %v", err)
	}
	polesMatch(t, poles, []complex128{complex(-1, -1), -1, complex(-1, 1)}, 1e-6)
}

func TestPlacePolesDelayed(t *testing.T) {
	spec := loop.DelayedSpec(1, 1, 0.5)
	got, err := PlacePoles(spec, []complex128{-1, -2, -3})
	if err != nil {
		t.Fatalf("PlacePoles error: %v", err)
	}
	gainsClose(t, got, loop.Gains{Kp: 29.0 / 21, Ki: 8.0 / 7, Kd: 5.0 / 21}, 1e-6)

	poles, err := sim.ClosedLoopPoles(spec, got)
	if err != nil {
		t.Fatalf("ClosedLoopPoles error: %v", err)
	}
	polesMatch(t, poles, []complex128{-3, -2, -1}, 1e-6)
}

func TestPlacePolesInfeasible(t *testing.T) {
	cases := []struct {
		name    string
		spec    loop.Spec
		desired []complex128
	}{
		{
			"order beyond pid reach",
			loop.HigherOrderSpec(1, []complex128{-1, -2, -3, complex(-0.5, 1), complex(-0.5, -1)}, nil),
			[]complex128{-1, -2, -3, -4, -5, -6},
		},
		{
			"wrong pole count",
			loop.SecondOrderSpec(1, 1, 0.2),
			[]complex128{-1, -2},
		},
		{
			"targets not conjugate closed",
			loop.SecondOrderSpec(1, 1, 0.2),
			[]complex128{-1, complex(-1, 1), complex(-2, 1)},
		},
		{
			"slow targets need negative gain",
			loop.FirstOrderSpec(1, 0.5),
			[]complex128{-0.1, -0.2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PlacePoles(tc.spec, tc.desired); !errors.Is(err, loop.ErrInfeasible) {
				t.Errorf("error = %v, want ErrInfeasible", err)
			}
		})
	}
}
