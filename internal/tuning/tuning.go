// Package tuning maps plant descriptions to PID gain triples. Every
// strategy is total: it returns a fully populated Gains or a typed error,
// never a partial triple.
package tuning

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Manual passes user-supplied gains through validation. A nil input falls
// back to loop.DefaultGains, so the caller always ends up with a defined
// triple.
func Manual(g *loop.Gains) (loop.Gains, error) {
	if g == nil {
		return loop.DefaultGains(), nil
	}
	if err := g.Validate(); err != nil {
		return loop.Gains{}, err
	}
	return *g, nil
}

// ZieglerNichols applies the classic closed-loop PID rule to the ultimate
// gain and period: Kp = 0.6*Ku, Ti = Tu/2, Td = Tu/8, in parallel form
// Ki = 1.2*Ku/Tu and Kd = 0.075*Ku*Tu.
func ZieglerNichols(ku, tu float64) (loop.Gains, error) {
	if ku <= 0 || !finite(ku) {
		return loop.Gains{}, &loop.ValidationError{Field: "ku", Reason: fmt.Sprintf("ultimate gain must be positive, got %g", ku)}
	}
	if tu <= 0 || !finite(tu) {
		return loop.Gains{}, &loop.ValidationError{Field: "tu", Reason: fmt.Sprintf("ultimate period must be positive, got %g", tu)}
	}
	kp := 0.6 * ku
	return loop.Gains{
		Kp: kp,
		Ki: 2 * kp / tu,
		Kd: kp * tu / 8,
	}, nil
}
