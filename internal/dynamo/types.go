package dynamo

import (
	"context"
	"fmt"
	"math"
	"time"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the largest component magnitude.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an ODE right-hand side. Derive must be a pure function of its
// arguments: integrators call it several times per step at trial states.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Guard is implemented by systems with a validity region narrower than
// "all components finite". A non-nil error aborts the run as a divergence.
type Guard interface {
	Check(x State, t float64) error
}

// Inspector is implemented by systems that expose derived quantities at
// accepted steps. Outputs names the values returned in Probe.Values.
type Inspector interface {
	Outputs() []string
	Inspect(x State, t float64) Probe
}

// Watcher is implemented by systems whose Derive can run unbounded user
// code. Watch is called once per run with a context that ends on
// cancellation or when the wall budget runs out; the system must then make
// Derive return promptly and report the cause from its Guard.
type Watcher interface {
	Watch(ctx context.Context) (stop func())
}

// Probe is what an Inspector reports for one accepted state.
type Probe struct {
	Values   []float64
	Warnings []Warning
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}

// AdaptiveIntegrator estimates its local error. StepAdaptive returns the
// candidate state, the suggested next step and the error ratio relative to
// tol; a ratio above 1 means the step should be rejected.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, float64)
}

type Metric interface {
	Name() string
	Observe(rec Record)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(rec Record)
}

type WarningKind string

const (
	WarnPressureRange WarningKind = "pressure_range"
	WarnSmallAngle    WarningKind = "small_angle"
)

// Warning is a non-fatal condition observed at an accepted step.
type Warning struct {
	Kind   WarningKind
	Source string
	Time   float64
	Value  float64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s[%s] t=%.6f value=%g", w.Kind, w.Source, w.Time, w.Value)
}

func (w Warning) key() string {
	return string(w.Kind) + "/" + w.Source
}

type Config struct {
	Dt              float64
	Duration        float64
	Tolerance       float64
	MaxDt           float64
	MinDt           float64
	Adaptive        bool
	MaxSteps        int
	WallBudget      time.Duration
	DivergenceLimit float64
}

func DefaultConfig() Config {
	return Config{
		Dt:              1e-4,
		Duration:        0.04,
		Tolerance:       1e-6,
		MaxDt:           1e-3,
		MinDt:           1e-9,
		Adaptive:        false,
		MaxSteps:        10_000_000,
		DivergenceLimit: 1e12,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return NewConfigError("dt", c.Dt, "must be positive and finite")
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return NewConfigError("tEnd", c.Duration, "must be positive and finite")
	}
	if c.MaxSteps < 0 {
		return NewConfigError("max_steps", c.MaxSteps, "must not be negative")
	}
	if c.WallBudget < 0 {
		return NewConfigError("wall_budget", c.WallBudget, "must not be negative")
	}
	if c.DivergenceLimit < 0 {
		return NewConfigError("divergence_limit", c.DivergenceLimit, "must not be negative")
	}
	if c.Adaptive {
		if !(c.Tolerance > 0) {
			return NewConfigError("tolerance", c.Tolerance, "must be positive for adaptive stepping")
		}
		if c.MinDt < 0 || c.MaxDt < 0 || (c.MaxDt > 0 && c.MinDt > c.MaxDt) {
			return NewConfigError("min_dt", c.MinDt, "must lie in [0, max_dt]")
		}
	}
	return nil
}

// FixedSteps is the number of full dt steps needed to reach Duration. A dt
// longer than Duration still takes one step.
func (c Config) FixedSteps() int {
	n := int(math.Ceil(c.Duration/c.Dt - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Record is one accepted sample of a run.
type Record struct {
	Time   float64
	State  State
	Values []float64
}

// Trace is the append-only output of a run. It is handed off after Run
// returns and never mutated by the simulator afterwards.
type Trace struct {
	Outputs       []string
	Records       []Record
	Warnings      []Warning
	WarningCounts map[string]int
	Metrics       map[string]float64
	StepsTaken    int
	Rejected      int
}

// Last returns the final record, or false for an empty trace.
func (t *Trace) Last() (Record, bool) {
	if t == nil || len(t.Records) == 0 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-1], true
}

// Times returns the sample times.
func (t *Trace) Times() []float64 {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Time
	}
	return out
}

// Column extracts state component idx over the whole trace.
func (t *Trace) Column(idx int) []float64 {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		if idx < len(r.State) {
			out[i] = r.State[idx]
		}
	}
	return out
}

// Output extracts a named inspector value over the whole trace.
func (t *Trace) Output(name string) ([]float64, bool) {
	idx := -1
	for i, n := range t.Outputs {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		if idx < len(r.Values) {
			out[i] = r.Values[idx]
		}
	}
	return out, true
}
