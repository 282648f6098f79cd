package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.L != 1.5 || cfg.M != 2500 || cfg.I != 100 {
		t.Errorf("unexpected rod %g %g %g", cfg.L, cfg.M, cfg.I)
	}
	if cfg.Qmax != 0.005 || cfg.C2 != 3e-9 {
		t.Errorf("unexpected supply Qmax=%g C2=%g", cfg.Qmax, cfg.C2)
	}
	if cfg.ExternalForce() != -9.81*2500 {
		t.Errorf("expected weight as external force, got %g", cfg.ExternalForce())
	}
	if len(cfg.InitialState()) != 6 {
		t.Errorf("expected 6 state components, got %d", len(cfg.InitialState()))
	}
}

func TestExternalForceOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetExternalForce(0)
	if cfg.ExternalForce() != 0 {
		t.Errorf("override ignored: %g", cfg.ExternalForce())
	}

	clone := cfg.Clone()
	clone.SetExternalForce(5)
	if cfg.ExternalForce() != 0 {
		t.Error("clone shares Fext with original")
	}
}

func TestValidateNamesField(t *testing.T) {
	tests := []struct {
		field string
		mut   func(*Config)
	}{
		{"L", func(c *Config) { c.L = 0 }},
		{"M", func(c *Config) { c.M = -1 }},
		{"I", func(c *Config) { c.I = 0 }},
		{"Fext", func(c *Config) { c.SetExternalForce(math.Inf(-1)) }},
		{"Qmax", func(c *Config) { c.Qmax = -0.1 }},
		{"C2", func(c *Config) { c.C2 = -1 }},
		{"cylinder.area", func(c *Config) { c.Cylinder.Area = 0 }},
		{"cylinder.bulk_modulus", func(c *Config) { c.Cylinder.BulkModulus = 0 }},
		{"dt", func(c *Config) { c.Dt = 0 }},
		{"tEnd", func(c *Config) { c.TEnd = -1 }},
		{"integrator", func(c *Config) { c.Integrator = "leapfrog" }},
		{"small_angle_limit", func(c *Config) { c.SmallAngleLimit = -0.1 }},
		{"wall_budget_s", func(c *Config) { c.WallBudget = -1 }},
		{"valve.period", func(c *Config) { c.Valve.Period = 0 }},
		{"valve.profile", func(c *Config) { c.Valve.Profile = "sine" }},
		{"valve.script", func(c *Config) { c.Valve.Profile = ProfileScript }},
		{"valve.area_b", func(c *Config) { c.Valve.Profile = ProfileConstant; c.Valve.AreaB = -1 }},
		{"init_state", func(c *Config) { c.InitState.Theta = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(cfg)

			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var cerr *dynamo.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cerr.Field)
			}
		})
	}
}

func TestSim(t *testing.T) {
	cfg := DefaultConfig()
	sim := cfg.Sim()
	if sim.Dt != 1e-4 || sim.Duration != 0.04 || sim.Adaptive {
		t.Errorf("unexpected sim config %+v", sim)
	}
	if sim.FixedSteps() != 400 {
		t.Errorf("expected 400 steps, got %d", sim.FixedSteps())
	}

	cfg.Integrator = "rk45"
	cfg.WallBudget = 1.5
	cfg.MaxSteps = 99
	sim = cfg.Sim()
	if !sim.Adaptive {
		t.Error("rk45 should run adaptively")
	}
	if sim.WallBudget != 1500*time.Millisecond {
		t.Errorf("wall budget %v", sim.WallBudget)
	}
	if sim.MaxSteps != 99 {
		t.Errorf("max steps %d", sim.MaxSteps)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("reference")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 1e-4 || cfg.TEnd != 0.04 {
		t.Errorf("reference preset dt=%g tEnd=%g", cfg.Dt, cfg.TEnd)
	}

	cfg.M = 1
	if GetPreset("reference").M != DefaultM {
		t.Error("presets must not share state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	src := `
M: 3000
Fext: -1000
tEnd: 0.02
integrator: rk45
valve:
  profile: script
  script: square.star
init_state:
  theta: 0.01
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.M != 3000 || cfg.ExternalForce() != -1000 || cfg.TEnd != 0.02 {
		t.Errorf("unexpected values M=%g Fext=%g tEnd=%g", cfg.M, cfg.ExternalForce(), cfg.TEnd)
	}
	if cfg.L != DefaultL || cfg.Dt != DefaultDt {
		t.Error("unset fields should keep defaults")
	}
	if cfg.Valve.Script != filepath.Join(dir, "square.star") {
		t.Errorf("script path not resolved: %s", cfg.Valve.Script)
	}
	if cfg.InitialState()[2] != 0.01 {
		t.Errorf("init theta %g", cfg.InitialState()[2])
	}
}

func TestLoadYAMLRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("M: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var cerr *dynamo.ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "M" {
		t.Fatalf("expected M config error, got %v", err)
	}
}

func TestLoadYAMLUnknownKey(t *testing.T) {
	dir := t.TempDir()
	for name, src := range map[string]string{
		"lowercase": "m: 3000\n",
		"nested":    "valve:\n  profile: triangle\n  peroid: 0.02\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("%s: expected unknown field error, got %v", name, err)
		}
	}
}

func TestLoadYAMLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if cfg.M != DefaultM {
		t.Errorf("M = %g, want default", cfg.M)
	}
}

func TestLoadCUE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.cue")
	src := `
L: 2
M: 1800
cylinder: bulk_modulus: 1.2e9
valve: {
	period:   0.04
	max_area: 2e-5
}
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.L != 2 || cfg.M != 1800 {
		t.Errorf("rod L=%g M=%g", cfg.L, cfg.M)
	}
	if cfg.Cylinder.BulkModulus != 1.2e9 || cfg.Cylinder.Area != DefaultConfig().Cylinder.Area {
		t.Errorf("cylinder %+v", cfg.Cylinder)
	}
	if cfg.Valve.Period != 0.04 || cfg.Valve.Profile != ProfileTriangle {
		t.Errorf("valve %+v", cfg.Valve)
	}
}

func TestLoadCUESchema(t *testing.T) {
	tests := map[string]string{
		"unknown field": "Mass: 10\n",
		"negative mass": "M: -5\n",
		"bad integrator": `integrator: "verlet"` + "\n",
		"nested unknown": "cylinder: stroke: 0.2\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rig.cue")
			if err := os.WriteFile(path, []byte(src), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected schema error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("stiff")
	cfg.SetExternalForce(-42)

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "stiff" || loaded.Integrator != "rk45" || loaded.ExternalForce() != -42 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Cylinder != cfg.Cylinder {
		t.Errorf("cylinder %+v != %+v", loaded.Cylinder, cfg.Cylinder)
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("M", 4000); err != nil {
		t.Fatal(err)
	}
	if cfg.M != 4000 {
		t.Errorf("M = %g", cfg.M)
	}
	if err := cfg.Set("cylinder.bulk_modulus", 1e9); err != nil {
		t.Fatal(err)
	}
	if cfg.Cylinder.BulkModulus != 1e9 {
		t.Errorf("bulk modulus = %g", cfg.Cylinder.BulkModulus)
	}
	if err := cfg.Set("Fext", -100); err != nil {
		t.Fatal(err)
	}
	if got, _ := cfg.Get("Fext"); got != -100 {
		t.Errorf("Fext = %g", got)
	}
	if err := cfg.Set("warp", 1); err == nil {
		t.Error("expected unknown parameter error")
	}
	if _, err := cfg.Get("warp"); err == nil {
		t.Error("expected unknown parameter error")
	}
}
