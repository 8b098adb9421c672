// Package batch runs scripted simulation sequences. A scenario file lists
// steps in YAML; each step picks a plant inline or by preset, overrides
// whatever it cares about, and can persist its run in the store.
package batch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

// Scenario is a named sequence of simulation steps.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep describes one run. A preset named as kind/name seeds the
// whole configuration; explicit fields then override it. Steps without a
// preset start from the stock defaults.
type ScenarioStep struct {
	Label     string              `yaml:"label"`
	Preset    string              `yaml:"preset"`
	Plant     *config.PlantConfig `yaml:"plant"`
	Gains     *config.GainsConfig `yaml:"gains"`
	Mode      string              `yaml:"mode"`
	Duration  float64             `yaml:"duration"`
	Step      float64             `yaml:"step"`
	Amplitude float64             `yaml:"amplitude"`
	Tolerance float64             `yaml:"tolerance"`
	SaveAs    string              `yaml:"save_as"`
}

// StepResult is the outcome of one executed step. RunID is set only when
// the step asked to be saved. Rejection is filled for regulatory steps.
type StepResult struct {
	Label     string
	RunID     string
	Spec      loop.Spec
	Gains     loop.Gains
	Trace     loop.Trace
	Metrics   metrics.StepMetrics
	Rejection metrics.DisturbanceMetrics
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// RunScenario executes every step in order and returns their results.
// On a failing step the results so far come back along with the error.
// Steps that save require a store; otherwise store may be nil.
func RunScenario(ctx context.Context, sc *Scenario, store *export.Store) ([]StepResult, error) {
	if sc == nil || len(sc.Steps) == 0 {
		return nil, &loop.EmptyInputError{Op: "scenario"}
	}
	results := make([]StepResult, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := runStep(st, store)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func runStep(st ScenarioStep, store *export.Store) (StepResult, error) {
	cfg, err := st.resolve()
	if err != nil {
		return StepResult{}, err
	}
	spec, err := cfg.Plant.Spec()
	if err != nil {
		return StepResult{}, err
	}
	mode, err := cfg.RunMode()
	if err != nil {
		return StepResult{}, err
	}
	rc, err := cfg.RunConfig()
	if err != nil {
		return StepResult{}, err
	}
	gains := cfg.Gains.Gains()

	tr, err := sim.Simulate(spec, gains, mode, rc)
	if err != nil {
		return StepResult{}, err
	}

	// Regulatory runs regulate to zero, so the step indices are measured
	// against that rather than the disturbance amplitude.
	target := rc.Amplitude
	if mode == loop.Regulatory {
		target = 0
	}
	res := StepResult{
		Label:   st.Label,
		Spec:    spec,
		Gains:   gains,
		Trace:   tr,
		Metrics: metrics.Step(tr, target, cfg.Tolerance),
	}
	if mode == loop.Regulatory {
		res.Rejection = metrics.Disturbance(tr)
	}

	if st.SaveAs != "" {
		if store == nil {
			return StepResult{}, &loop.ValidationError{Field: "save_as", Reason: "no store configured"}
		}
		id, err := store.Save(st.SaveAs, spec, gains, rc, tr, res.Metrics)
		if err != nil {
			return StepResult{}, err
		}
		res.RunID = id
	}
	return res, nil
}

// resolve folds the step's overrides over its preset, or over the stock
// defaults when no preset is named.
func (st ScenarioStep) resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if st.Preset != "" {
		kind, name, ok := strings.Cut(st.Preset, "/")
		if !ok {
			return nil, &loop.ValidationError{Field: "preset", Reason: fmt.Sprintf("want kind/name, got %q", st.Preset)}
		}
		p := config.GetPreset(kind, name)
		if p == nil {
			return nil, &loop.ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", st.Preset)}
		}
		c := *p
		cfg = &c
	}
	if st.Plant != nil {
		cfg.Plant = *st.Plant
	}
	if st.Gains != nil {
		cfg.Gains = *st.Gains
	}
	if st.Mode != "" {
		cfg.Mode = st.Mode
	}
	if st.Duration > 0 {
		cfg.Duration = st.Duration
	}
	if st.Step > 0 {
		cfg.Step = st.Step
	}
	if st.Amplitude != 0 {
		cfg.Amplitude = st.Amplitude
	}
	if st.Tolerance > 0 {
		cfg.Tolerance = st.Tolerance
	}
	return cfg, nil
}
