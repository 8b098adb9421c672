package tuning

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/tf"
)

// relayPeaks is how many alternating extrema the experiment collects before
// stopping; the first few belong to the startup transient and are skipped
// when estimating the cycle.
const relayPeaks = 12

// RelayConfig bounds one relay experiment.
type RelayConfig struct {
	Drive      float64 // relay output magnitude
	Hysteresis float64 // switching band half-width, in output units
	Step       float64 // sample period [s]
	MaxTime    float64 // give-up horizon [s]
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{Drive: 1.0, Hysteresis: 0.01, Step: 0.005, MaxTime: 60.0}
}

func (c RelayConfig) validate() error {
	if !finite(c.Drive) || c.Drive <= 0 {
		return &loop.ValidationError{Field: "drive", Reason: fmt.Sprintf("relay drive must be positive, got %g", c.Drive)}
	}
	if !finite(c.Hysteresis) || c.Hysteresis < 0 {
		return &loop.ValidationError{Field: "hysteresis", Reason: fmt.Sprintf("hysteresis must be non-negative, got %g", c.Hysteresis)}
	}
	if !finite(c.Step) || c.Step <= 0 {
		return &loop.ValidationError{Field: "step", Reason: fmt.Sprintf("step must be positive, got %g", c.Step)}
	}
	if !finite(c.MaxTime) || c.MaxTime < 100*c.Step {
		return &loop.ValidationError{Field: "maxtime", Reason: fmt.Sprintf("horizon must cover at least 100 samples, got %g", c.MaxTime)}
	}
	return nil
}

// RelayResult is the ultimate-cycle estimate from a relay experiment,
// ready to feed ZieglerNichols.
type RelayResult struct {
	Ku        float64 // ultimate gain 4d/(pi*a)
	Tu        float64 // ultimate period [s]
	Amplitude float64 // half peak-to-trough output swing
	Peaks     int     // extrema observed
}

// Relay runs the Astrom-Hagglund relay experiment against the simulated
// plant: bang-bang feedback switching at +/-Hysteresis around zero excites
// a limit cycle whose amplitude and period estimate the ultimate gain and
// period. Plants with too little phase lag (plain first-order lags, pure
// integrators) only ever cycle at the sample rate or inside the switching
// band and are reported infeasible. The hysteresis band must sit well
// below the output swing the plant can reach under the drive.
func Relay(spec loop.Spec, cfg RelayConfig) (RelayResult, error) {
	if err := cfg.validate(); err != nil {
		return RelayResult{}, err
	}
	g, err := plant.FromSpec(spec)
	if err != nil {
		return RelayResult{}, err
	}
	sim, err := tf.NewSimulator(g)
	if err != nil {
		return RelayResult{}, err
	}

	type extremum struct {
		t float64
		y float64
	}
	var peaks []extremum

	// While driving up we track the trough the lag carries us through;
	// while driving down, the crest. Each relay switch archives the
	// extremum of the phase just ended.
	u := cfg.Drive
	ext := extremum{y: math.Inf(1)}

	steps := int(cfg.MaxTime / cfg.Step)
	for i := 1; i <= steps && len(peaks) < relayPeaks; i++ {
		y := sim.Step(u, cfg.Step)
		t := float64(i) * cfg.Step
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return RelayResult{}, &loop.InfeasibleError{Strategy: "relay", Reason: "output diverged under relay feedback"}
		}

		if u > 0 {
			if y < ext.y {
				ext = extremum{t: t, y: y}
			}
			if y > cfg.Hysteresis {
				peaks = append(peaks, ext)
				u = -cfg.Drive
				ext = extremum{y: math.Inf(-1)}
			}
		} else {
			if y > ext.y {
				ext = extremum{t: t, y: y}
			}
			if y < -cfg.Hysteresis {
				peaks = append(peaks, ext)
				u = cfg.Drive
				ext = extremum{y: math.Inf(1)}
			}
		}
	}

	if len(peaks) < 4 {
		return RelayResult{}, &loop.InfeasibleError{
			Strategy: "relay",
			Reason:   fmt.Sprintf("no sustained oscillation within %gs (%d extrema)", cfg.MaxTime, len(peaks)),
		}
	}

	// Median cycle over the post-transient extrema, same-sign peak spacing.
	type cycle struct {
		tu  float64
		pos int
	}
	var cycles []cycle
	for pos := 4; pos < len(peaks); pos++ {
		cycles = append(cycles, cycle{tu: peaks[pos].t - peaks[pos-2].t, pos: pos})
	}
	if len(cycles) == 0 {
		cycles = append(cycles, cycle{tu: peaks[len(peaks)-1].t - peaks[len(peaks)-3].t, pos: len(peaks) - 1})
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].tu < cycles[j].tu })
	mid := cycles[len(cycles)/2]

	tu := mid.tu
	amp := 0.5 * math.Abs(peaks[mid.pos].y-peaks[mid.pos-1].y)
	if tu < 10*cfg.Step {
		return RelayResult{}, &loop.InfeasibleError{
			Strategy: "relay",
			Reason:   fmt.Sprintf("oscillation period %.4fs is at the sample rate; the plant has too little phase lag", tu),
		}
	}
	// A cycle that never grows past the switching band is a hysteresis
	// artifact, not an ultimate oscillation.
	if amp <= 2*cfg.Hysteresis {
		return RelayResult{}, &loop.InfeasibleError{
			Strategy: "relay",
			Reason:   fmt.Sprintf("oscillation amplitude %.4g never cleared the switching band; the plant has no ultimate point", amp),
		}
	}
	if amp < 1e-9 {
		return RelayResult{}, &loop.InfeasibleError{Strategy: "relay", Reason: "oscillation amplitude vanished"}
	}

	return RelayResult{
		Ku:        4 * cfg.Drive / (math.Pi * amp),
		Tu:        tu,
		Amplitude: amp,
		Peaks:     len(peaks),
	}, nil
}
