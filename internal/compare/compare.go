// Package compare ranks candidate gain triples against a single plant by
// weighted step-response quality.
package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

// Weights blends the step metrics into one score. Values are relative:
// Run scales them by their sum, so a table does not have to add up to 1.
type Weights struct {
	Overshoot float64 `yaml:"overshoot"`
	Settling  float64 `yaml:"settling"`
	Rise      float64 `yaml:"rise"`
	SSE       float64 `yaml:"sse"`
	ITAE      float64 `yaml:"itae"`
}

// DefaultWeights favors damping and settling over raw speed.
func DefaultWeights() Weights {
	return Weights{Overshoot: 0.25, Settling: 0.25, Rise: 0.2, SSE: 0.2, ITAE: 0.1}
}

func (w Weights) validate() (float64, error) {
	total := 0.0
	for _, v := range []float64{w.Overshoot, w.Settling, w.Rise, w.SSE, w.ITAE} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, &loop.ValidationError{Field: "weights", Reason: fmt.Sprintf("weights must be finite and non-negative, got %+v", w)}
		}
		total += v
	}
	if total <= 0 {
		return 0, &loop.ValidationError{Field: "weights", Reason: "at least one weight must be positive"}
	}
	return total, nil
}

// Entry is one ranked candidate.
type Entry struct {
	Gains   loop.Gains
	Metrics metrics.StepMetrics
	Score   float64
}

// Ranking lists candidates best first.
type Ranking []Entry

// Run simulates every candidate in servo mode, scores the step metrics
// against each other, and returns the candidates ranked best first. Each
// metric is min-max normalized across the candidate set and the score is
// the weighted sum of (1 - normalized) values, so 1 means best-in-set on
// every weighted metric. A metric all candidates share normalizes to zero
// and counts as best for everyone; a single candidate therefore scores
// exactly 1. Ties rank the lower ITAE first.
func Run(spec loop.Spec, candidates []loop.Gains, cfg loop.Config, w Weights) (Ranking, error) {
	if len(candidates) == 0 {
		return nil, &loop.EmptyInputError{Op: "compare"}
	}
	total, err := w.validate()
	if err != nil {
		return nil, err
	}

	weights := []float64{w.Overshoot, w.Settling, w.Rise, w.SSE, w.ITAE}
	cols := make([][]float64, len(weights))
	for m := range cols {
		cols[m] = make([]float64, len(candidates))
	}

	ranking := make(Ranking, len(candidates))
	for i, g := range candidates {
		tr, err := sim.Simulate(spec, g, loop.Servo, cfg)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		met := metrics.Step(tr, cfg.Amplitude, 0)
		ranking[i] = Entry{Gains: g, Metrics: met}
		cols[0][i] = met.Overshoot
		cols[1][i] = met.SettlingTime
		cols[2][i] = met.RiseTime
		cols[3][i] = math.Abs(met.SteadyStateError)
		cols[4][i] = met.ITAE
	}

	raw := make([]float64, len(candidates))
	for m, col := range cols {
		lo, hi := bounds(col)
		for i, v := range col {
			norm := 0.0
			if hi > lo {
				norm = (v - lo) / (hi - lo)
			}
			raw[i] += weights[m] * (1 - norm)
		}
	}
	for i := range ranking {
		ranking[i].Score = raw[i] / total
	}

	sort.SliceStable(ranking, func(a, b int) bool {
		if ranking[a].Score != ranking[b].Score {
			return ranking[a].Score > ranking[b].Score
		}
		return ranking[a].Metrics.ITAE < ranking[b].Metrics.ITAE
	})
	return ranking, nil
}

func bounds(col []float64) (lo, hi float64) {
	lo, hi = col[0], col[0]
	for _, v := range col[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
