package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

// SweepPoint records how the closed loop behaves at one value of the
// swept gain. Unstable marks runs whose response diverged; their
// metrics are zero.
type SweepPoint struct {
	Value    float64
	Unstable bool
	Metrics  metrics.StepMetrics
}

// GainSweep varies one gain of base across [from, to] and simulates a
// servo step at each value, keeping the other two gains fixed. The
// gain argument names the swept gain: "kp", "ki" or "kd". Divergence
// is recorded in the point rather than returned as an error, which
// makes the sweep useful for locating the stability boundary.
func GainSweep(spec loop.Spec, base loop.Gains, gain string, from, to float64, steps int, cfg loop.Config) ([]SweepPoint, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := gainSetter(gain)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(from) || math.IsInf(from, 0) || from < 0 {
		return nil, &loop.ValidationError{Field: "from", Reason: fmt.Sprintf("gain range must start at a finite non-negative value, got %g", from)}
	}
	if math.IsNaN(to) || math.IsInf(to, 0) || to <= from {
		return nil, &loop.ValidationError{Field: "to", Reason: fmt.Sprintf("gain range must end above %g, got %g", from, to)}
	}
	if steps <= 1 {
		steps = 2 // prevent division by zero
	}

	points := make([]SweepPoint, 0, steps)
	stride := (to - from) / float64(steps-1)
	for i := 0; i < steps; i++ {
		v := from + float64(i)*stride
		g := base
		set(&g, v)

		pt := SweepPoint{Value: v}
		tr, err := sim.Simulate(spec, g, loop.Servo, cfg)
		switch {
		case errors.Is(err, loop.ErrModel):
			pt.Unstable = true
		case err != nil:
			return nil, err
		default:
			pt.Metrics = metrics.Step(tr, cfg.Amplitude, 0)
		}
		points = append(points, pt)
	}
	return points, nil
}

func gainSetter(name string) (func(*loop.Gains, float64), error) {
	switch name {
	case "kp":
		return func(g *loop.Gains, v float64) { g.Kp = v }, nil
	case "ki":
		return func(g *loop.Gains, v float64) { g.Ki = v }, nil
	case "kd":
		return func(g *loop.Gains, v float64) { g.Kd = v }, nil
	}
	return nil, &loop.ValidationError{Field: "gain", Reason: fmt.Sprintf("unknown gain %q, want kp, ki or kd", name)}
}
