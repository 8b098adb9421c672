package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

// RobustnessConfig drives randomized gain-perturbation trials around a
// nominal tuning.
type RobustnessConfig struct {
	Perturbation float64 // fractional half-width; 0.2 scales each gain by a factor in [0.8, 1.2]
	Trials       int
	Seed         int64 // 0 seeds from the clock
}

// Trial is one perturbed run. Metrics is the zero value when the loop
// diverged.
type Trial struct {
	Gains   loop.Gains
	Stable  bool
	Metrics metrics.StepMetrics
}

// RunRobustness simulates a servo step for Trials random perturbations of
// the nominal gains and records which loops stayed stable. Zero gains stay
// zero, so a PI tuning is perturbed as a PI tuning.
func RunRobustness(ctx context.Context, spec loop.Spec, nominal loop.Gains, cfg loop.Config, rc RobustnessConfig) ([]Trial, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := nominal.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !(rc.Perturbation >= 0 && rc.Perturbation <= 1) {
		return nil, &loop.ValidationError{Field: "perturbation", Reason: fmt.Sprintf("must lie in [0, 1], got %g", rc.Perturbation)}
	}
	if rc.Trials < 1 {
		return nil, &loop.ValidationError{Field: "trials", Reason: fmt.Sprintf("need at least one trial, got %d", rc.Trials)}
	}

	rng := rand.New(rand.NewSource(rc.Seed))
	if rc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	trials := make([]Trial, 0, rc.Trials)
	for i := 0; i < rc.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return trials, err
		}
		g := loop.Gains{
			Kp: perturb(rng, nominal.Kp, rc.Perturbation),
			Ki: perturb(rng, nominal.Ki, rc.Perturbation),
			Kd: perturb(rng, nominal.Kd, rc.Perturbation),
		}
		tr, err := sim.Simulate(spec, g, loop.Servo, cfg)
		switch {
		case errors.Is(err, loop.ErrModel):
			trials = append(trials, Trial{Gains: g})
		case err != nil:
			return trials, err
		default:
			trials = append(trials, Trial{Gains: g, Stable: true, Metrics: metrics.Step(tr, cfg.Amplitude, 0)})
		}
	}
	return trials, nil
}

func perturb(rng *rand.Rand, v, p float64) float64 {
	return v * (1 + (rng.Float64()-0.5)*2*p)
}

// Counts tallies the stable and diverged trials.
func Counts(trials []Trial) (stable, unstable int) {
	for _, t := range trials {
		if t.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
