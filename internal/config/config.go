package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/compare"
	"github.com/san-kum/pidlab/internal/loop"
)

const (
	DefaultStep      = 0.02
	DefaultDuration  = 10.0
	DefaultAmplitude = 1.0
	DefaultTolerance = 0.02
	DefaultKp        = 1.0
	DefaultTau       = 1.0
)

// Config is one full run description: the plant, the controller, the step
// experiment, and the comparison weights. Files only have to name the
// fields they change; Load starts from DefaultConfig.
type Config struct {
	Mode       string          `yaml:"mode"`
	Duration   float64         `yaml:"duration"`
	Step       float64         `yaml:"step"`
	Amplitude  float64         `yaml:"amplitude"`
	Tolerance  float64         `yaml:"tolerance"`
	Plant      PlantConfig     `yaml:"plant"`
	Gains      GainsConfig     `yaml:"gains"`
	Candidates []GainsConfig   `yaml:"candidates"`
	Weights    compare.Weights `yaml:"weights"`
}

type PlantConfig struct {
	Kind  string       `yaml:"kind"`
	K     float64      `yaml:"k"`
	Tau   float64      `yaml:"tau"`
	Wn    float64      `yaml:"wn"`
	Zeta  float64      `yaml:"zeta"`
	Delay float64      `yaml:"delay"`
	Poles []RootConfig `yaml:"poles"`
	Zeros []RootConfig `yaml:"zeros"`
}

// RootConfig is one pole or zero; conjugate partners are listed
// explicitly.
type RootConfig struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:      loop.Servo.String(),
		Duration:  DefaultDuration,
		Step:      DefaultStep,
		Amplitude: DefaultAmplitude,
		Tolerance: DefaultTolerance,
		Plant:     PlantConfig{Kind: loop.FirstOrder.String(), K: 1, Tau: DefaultTau},
		Gains:     GainsConfig{Kp: DefaultKp},
		Weights:   compare.DefaultWeights(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Spec converts the plant block into a validated loop.Spec.
func (p PlantConfig) Spec() (loop.Spec, error) {
	kind, err := loop.ParseKind(p.Kind)
	if err != nil {
		return loop.Spec{}, err
	}
	var s loop.Spec
	switch kind {
	case loop.FirstOrder:
		s = loop.FirstOrderSpec(p.K, p.Tau)
	case loop.SecondOrder:
		s = loop.SecondOrderSpec(p.K, p.Wn, p.Zeta)
	case loop.Integrator:
		s = loop.IntegratorSpec(p.K)
	case loop.Delayed:
		s = loop.DelayedSpec(p.K, p.Tau, p.Delay)
	case loop.HigherOrder:
		s = loop.HigherOrderSpec(p.K, roots(p.Poles), roots(p.Zeros))
	default:
		return loop.Spec{}, &loop.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown plant kind %q", p.Kind)}
	}
	if err := s.Validate(); err != nil {
		return loop.Spec{}, err
	}
	return s, nil
}

func roots(rs []RootConfig) []complex128 {
	if len(rs) == 0 {
		return nil
	}
	out := make([]complex128, len(rs))
	for i, r := range rs {
		out[i] = complex(r.Re, r.Im)
	}
	return out
}

// RunConfig converts the experiment block into a validated loop.Config.
func (c *Config) RunConfig() (loop.Config, error) {
	rc := loop.Config{Duration: c.Duration, Step: c.Step, Amplitude: c.Amplitude}
	if err := rc.Validate(); err != nil {
		return loop.Config{}, err
	}
	return rc, nil
}

// RunMode parses the mode block.
func (c *Config) RunMode() (loop.Mode, error) {
	return loop.ParseMode(c.Mode)
}

func (g GainsConfig) Gains() loop.Gains {
	return loop.Gains{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd}
}

// CandidateGains collects the candidates block for comparison runs. An
// empty block falls back to the single gains entry.
func (c *Config) CandidateGains() []loop.Gains {
	if len(c.Candidates) == 0 {
		return []loop.Gains{c.Gains.Gains()}
	}
	out := make([]loop.Gains, len(c.Candidates))
	for i, g := range c.Candidates {
		out[i] = g.Gains()
	}
	return out
}
