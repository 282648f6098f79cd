package config

import "sort"

// Presets are complete configurations selectable by name.
var Presets = map[string]func() *Config{
	// The two-period reference scenario.
	"reference": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "reference"
		return cfg
	},
	"heavy": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "heavy"
		cfg.M = 5000
		cfg.I = 200
		cfg.TEnd = 0.1
		return cfg
	},
	// Stiff oil and a short rod, solved adaptively.
	"stiff": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "stiff"
		cfg.L = 0.8
		cfg.Cylinder.BulkModulus = 1.6e9
		cfg.Integrator = "rk45"
		cfg.Tolerance = 1e-8
		cfg.TEnd = 0.06
		return cfg
	},
	// Valves shut and no hydraulic force: the rod drops under gravity.
	"freefall": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "freefall"
		cfg.Valve.Profile = ProfileClosed
		cfg.DisableHydraulics = true
		cfg.TEnd = 0.2
		cfg.Dt = 1e-3
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
