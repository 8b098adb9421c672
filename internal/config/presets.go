package config

// Presets holds ready-made experiments keyed by plant kind and preset
// name. Each entry is a complete Config, so a preset can pin the horizon
// and step that suit its dynamics.
var Presets = map[string]map[string]*Config{
	"first_order": {
		"fast": {
			Mode: "servo", Duration: 10.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "first_order", K: 1, Tau: 0.5},
			Gains: GainsConfig{Kp: 2, Ki: 2, Kd: 0.125},
		},
		"slow": {
			Mode: "servo", Duration: 30.0, Step: 0.05, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "first_order", K: 1, Tau: 3.0},
			Gains: GainsConfig{Kp: 3.5, Ki: 1.5},
		},
	},
	"second_order": {
		"underdamped": {
			Mode: "servo", Duration: 15.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "second_order", K: 1, Wn: 1, Zeta: 0.3},
			Gains: GainsConfig{Kp: 0.6, Ki: 1, Kd: 1},
		},
		"critical": {
			Mode: "servo", Duration: 15.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "second_order", K: 1, Wn: 1, Zeta: 1.0},
			Gains: GainsConfig{Kp: 1, Ki: 0.5, Kd: 2},
		},
		"overdamped": {
			Mode: "servo", Duration: 20.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "second_order", K: 1, Wn: 1, Zeta: 2.0},
			Gains: GainsConfig{Kp: 1, Ki: 0.5, Kd: 4},
		},
	},
	"integrator": {
		"unit": {
			Mode: "servo", Duration: 10.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "integrator", K: 1},
			Gains: GainsConfig{Kp: 1, Ki: 0, Kd: 0.5},
		},
	},
	"delayed": {
		"short_lag": {
			Mode: "servo", Duration: 15.0, Step: 0.01, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{Kind: "delayed", K: 1, Tau: 1, Delay: 0.5},
			Gains: GainsConfig{Kp: 2.4, Ki: 2.4, Kd: 0.6},
		},
	},
	"higher_order": {
		"five_pole": {
			Mode: "servo", Duration: 30.0, Step: 0.02, Amplitude: 1, Tolerance: DefaultTolerance,
			Plant: PlantConfig{
				Kind: "higher_order", K: 1,
				Poles: []RootConfig{
					{Re: -1}, {Re: -2}, {Re: -3},
					{Re: -0.5, Im: 1}, {Re: -0.5, Im: -1},
				},
			},
			Gains: GainsConfig{Kp: 1, Ki: 0.1, Kd: 0.1},
		},
	},
}

func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	cfg, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	return names
}
