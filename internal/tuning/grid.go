package tuning

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

// GridSearch scores every combination of the candidate gain values against
// a single step-response index and keeps the combination with the lowest
// score. An empty axis pins that gain at zero, so a PI search only needs
// Kp and Ki values.
type GridSearch struct {
	Kp []float64
	Ki []float64
	Kd []float64
}

// gridMetrics maps the names accepted by Search onto the index they read
// from the step summary. The keys match the serialized metric names.
var gridMetrics = map[string]func(metrics.StepMetrics) float64{
	"iae":           func(m metrics.StepMetrics) float64 { return m.IAE },
	"ise":           func(m metrics.StepMetrics) float64 { return m.ISE },
	"itae":          func(m metrics.StepMetrics) float64 { return m.ITAE },
	"settling_time": func(m metrics.StepMetrics) float64 { return m.SettlingTime },
	"rise_time":     func(m metrics.StepMetrics) float64 { return m.RiseTime },
	"overshoot":     func(m metrics.StepMetrics) float64 { return m.Overshoot },
}

// GridMetricNames lists the metric names Search accepts.
func GridMetricNames() []string {
	return []string{"iae", "ise", "itae", "settling_time", "rise_time", "overshoot"}
}

// Search simulates a servo step for every gain combination and returns the
// gains with the smallest value of the named metric together with that
// value. Combinations whose loop diverges are skipped, so the grid may
// straddle the stability boundary. If every combination diverges the
// search reports an InfeasibleError.
func (g GridSearch) Search(ctx context.Context, spec loop.Spec, cfg loop.Config, metric string) (loop.Gains, float64, error) {
	if err := spec.Validate(); err != nil {
		return loop.Gains{}, 0, err
	}
	if err := cfg.Validate(); err != nil {
		return loop.Gains{}, 0, err
	}
	score, ok := gridMetrics[metric]
	if !ok {
		return loop.Gains{}, 0, &loop.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metric)}
	}
	if err := validAxis("kp", g.Kp); err != nil {
		return loop.Gains{}, 0, err
	}
	if err := validAxis("ki", g.Ki); err != nil {
		return loop.Gains{}, 0, err
	}
	if err := validAxis("kd", g.Kd); err != nil {
		return loop.Gains{}, 0, err
	}

	best := math.Inf(1)
	var bestGains loop.Gains
	for _, kp := range axisOrZero(g.Kp) {
		for _, ki := range axisOrZero(g.Ki) {
			for _, kd := range axisOrZero(g.Kd) {
				if err := ctx.Err(); err != nil {
					return loop.Gains{}, 0, err
				}
				cand := loop.Gains{Kp: kp, Ki: ki, Kd: kd}
				tr, err := sim.Simulate(spec, cand, loop.Servo, cfg)
				switch {
				case errors.Is(err, loop.ErrModel):
					continue
				case err != nil:
					return loop.Gains{}, 0, err
				}
				if val := score(metrics.Step(tr, cfg.Amplitude, 0)); val < best {
					best = val
					bestGains = cand
				}
			}
		}
	}
	if math.IsInf(best, 1) {
		return loop.Gains{}, 0, &loop.InfeasibleError{Strategy: "grid search", Reason: "every gain combination diverged"}
	}
	return bestGains, best, nil
}

func validAxis(name string, vals []float64) error {
	for _, v := range vals {
		if !finite(v) || v < 0 {
			return &loop.ValidationError{Field: name, Reason: fmt.Sprintf("grid values must be finite and non-negative, got %g", v)}
		}
	}
	return nil
}

func axisOrZero(vals []float64) []float64 {
	if len(vals) == 0 {
		return []float64{0}
	}
	return vals
}
