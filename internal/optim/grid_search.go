// Package optim searches rig parameters for the configuration that
// minimizes a run metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/logs"
	"github.com/san-kum/hydrorig/internal/metrics"
	"github.com/san-kum/hydrorig/internal/rig"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters, %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points enumerates the full cartesian grid, last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.collect(depth+1, newParams, out)
	}
}

// Result is one grid point. Err is set for points that failed validation or
// stopped early; their Value is NaN.
type Result struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs every grid point on top of base and returns the point with
// the smallest value of metric, together with all results in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, workers int) (Result, []Result, error) {
	if !knownMetric(base, metric) {
		return Result{}, nil, fmt.Errorf("unknown metric %q (available: %v)", metric, metricNames(base))
	}

	points := g.Points()
	results := make([]Result, len(points))

	jobs := make([]dynamo.Job, 0, len(points))
	owner := make([]int, 0, len(points))
	for i, params := range points {
		results[i] = Result{Params: params, Value: math.NaN()}

		cfg, err := apply(base, params)
		if err != nil {
			results[i].Err = err
			continue
		}
		sim, _, err := rig.NewSimulator(cfg, logs.Discard())
		if err != nil {
			results[i].Err = err
			continue
		}
		for _, m := range metrics.Standard(cfg) {
			sim.AddMetric(m)
		}
		jobs = append(jobs, dynamo.Job{Name: label(params), Sim: sim, X0: cfg.InitialState(), Config: cfg.Sim()})
		owner = append(owner, i)
	}

	for j, r := range dynamo.RunEnsemble(ctx, jobs, workers, nil) {
		i := owner[j]
		if r.Err != nil {
			results[i].Err = r.Err
			continue
		}
		results[i].Value = r.Trace.Metrics[metric]
	}

	best := Result{Value: math.Inf(1)}
	for _, r := range results {
		if r.Err == nil && r.Value < best.Value {
			best = r
		}
	}
	if best.Params == nil {
		return best, results, fmt.Errorf("grid search: no point of %d completed", len(points))
	}
	return best, results, nil
}

func metricNames(cfg *config.Config) []string {
	var names []string
	for _, m := range metrics.Standard(cfg) {
		names = append(names, m.Name())
	}
	return names
}

func knownMetric(cfg *config.Config, name string) bool {
	for _, n := range metricNames(cfg) {
		if n == name {
			return true
		}
	}
	return false
}

func apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	cfg.Name = label(params)
	for name, v := range params {
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func label(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	s := ""
	for i, k := range names {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%g", k, params[k])
	}
	return s
}
