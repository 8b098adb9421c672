package analysis

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/sim"
)

// Stability summarizes the closed-loop pole set of a plant under given
// gains.
type Stability struct {
	Poles   []complex128
	Margin  float64 // how far the rightmost pole sits left of the imaginary axis
	Damping float64 // damping ratio of the least damped oscillatory pair
	Stable  bool
}

// CheckStability places the closed-loop poles and reduces them to a
// quick verdict: the margin of the rightmost pole from the imaginary
// axis, and the damping ratio of the least damped oscillatory pair.
// Loops without oscillatory poles report a damping of 1.
func CheckStability(spec loop.Spec, gains loop.Gains) (Stability, error) {
	poles, err := sim.ClosedLoopPoles(spec, gains)
	if err != nil {
		return Stability{}, err
	}

	st := Stability{Poles: poles, Damping: 1}
	maxRe := math.Inf(-1)
	for _, p := range poles {
		if re := real(p); re > maxRe {
			maxRe = re
		}
		if imag(p) != 0 {
			if z := -real(p) / cmplx.Abs(p); z < st.Damping {
				st.Damping = z
			}
		}
	}
	st.Margin = -maxRe
	st.Stable = st.Margin > 0
	return st, nil
}
