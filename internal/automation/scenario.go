// Package automation runs scripted sequences of rig simulations.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/metrics"
	"github.com/san-kum/hydrorig/internal/rig"
	"github.com/san-kum/hydrorig/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep is one run. Preset and Config pick the base configuration
// (Config wins when both are set); Set overrides single parameters on top.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Set    map[string]float64 `yaml:"set"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	scenario.dir = filepath.Dir(path)

	return &scenario, nil
}

// Build resolves the step's configuration. Relative config paths are taken
// from the scenario file's directory.
func (s *Scenario) Build(step ScenarioStep) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if step.Preset != "" {
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", step.Preset, config.ListPresets())
		}
	}
	if step.Config != "" {
		path := step.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	names := make([]string, 0, len(step.Set))
	for k := range step.Set {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := cfg.Set(k, step.Set[k]); err != nil {
			return nil, err
		}
	}
	if step.Name != "" {
		cfg.Name = step.Name
	}
	return cfg, cfg.Validate()
}

type StepResult struct {
	Name  string
	RunID string
	Trace *dynamo.Trace
	Err   error
}

// RunScenario executes all steps in order. A run that stops early is kept
// in its result and the scenario continues; a step whose configuration is
// invalid aborts the scenario. Traces are saved when st is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := scenario.Build(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "steps", len(scenario.Steps), "name", cfg.Name)

		sim, _, err := rig.NewSimulator(cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, m := range metrics.Standard(cfg) {
			sim.AddMetric(m)
		}

		tr, runErr := sim.Run(ctx, cfg.InitialState(), cfg.Sim())
		res := StepResult{Name: cfg.Name, Trace: tr, Err: runErr}

		if st != nil && tr != nil {
			id, err := st.Save(cfg, tr, runErr)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			res.RunID = id
		}
		results = append(results, res)

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}
