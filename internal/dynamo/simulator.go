package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

type Simulator struct {
	sys        System
	integrator Integrator
	inspector  Inspector
	guard      Guard
	watcher    Watcher
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger
}

func New(sys System, integrator Integrator) *Simulator {
	s := &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.Default(),
	}
	if in, ok := sys.(Inspector); ok {
		s.inspector = in
	}
	if g, ok := sys.(Guard); ok {
		s.guard = g
	}
	if w, ok := sys.(Watcher); ok {
		s.watcher = w
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run integrates from t=0 to cfg.Duration. On divergence or budget exhaustion
// the returned trace holds every record accepted before the failure.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Trace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, system wants %d",
			ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	trace := &Trace{
		Records:       make([]Record, 0, s.capacity(cfg)),
		Warnings:      make([]Warning, 0),
		WarningCounts: make(map[string]int),
		Metrics:       make(map[string]float64),
	}
	if s.inspector != nil {
		trace.Outputs = append([]string(nil), s.inspector.Outputs()...)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	if err := s.check(x, 0, cfg); err != nil {
		return trace, &SimulationError{Step: 0, Time: 0, State: x, Wrapped: err}
	}
	s.record(trace, x, 0)

	s.logger.Info("run started",
		"dt", cfg.Dt, "duration", cfg.Duration, "adaptive", cfg.Adaptive)
	start := time.Now()

	if s.watcher != nil {
		watchCtx := ctx
		if cfg.WallBudget > 0 {
			var cancel context.CancelFunc
			watchCtx, cancel = context.WithTimeoutCause(ctx, cfg.WallBudget, ErrWallBudget)
			defer cancel()
		}
		stop := s.watcher.Watch(watchCtx)
		defer stop()
	}

	var err error
	if cfg.Adaptive {
		err = s.runAdaptive(ctx, trace, x, cfg, start)
	} else {
		err = s.runFixed(ctx, trace, x, cfg, start)
	}

	for _, m := range s.metrics {
		trace.Metrics[m.Name()] = m.Value()
	}
	for key, n := range trace.WarningCounts {
		if n > 1 {
			s.logger.Warn("warning repeated", "warning", key, "count", n)
		}
	}

	if err != nil {
		s.logger.Error("run aborted", "error", err, "records", len(trace.Records))
		return trace, err
	}
	s.logger.Info("run finished",
		"steps", trace.StepsTaken, "rejected", trace.Rejected, "elapsed", time.Since(start))
	return trace, nil
}

func (s *Simulator) capacity(cfg Config) int {
	if cfg.Adaptive {
		return 64
	}
	n := cfg.FixedSteps() + 1
	if cfg.MaxSteps > 0 && n > cfg.MaxSteps+1 {
		n = cfg.MaxSteps + 1
	}
	return n
}

func (s *Simulator) runFixed(ctx context.Context, trace *Trace, x State, cfg Config, start time.Time) error {
	steps := cfg.FixedSteps()
	t := 0.0

	for i := 0; i < steps; i++ {
		if err := s.budget(ctx, cfg, i, start); err != nil {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		newX := s.integrator.Step(s.sys, x, t, cfg.Dt)
		// Multiplying instead of accumulating keeps sample times exact
		// across reruns and independent of step count.
		tNext := float64(i+1) * cfg.Dt

		if err := s.check(newX, tNext, cfg); err != nil {
			return &SimulationError{Step: i + 1, Time: tNext, State: newX, Wrapped: err}
		}

		x = newX
		t = tNext
		trace.StepsTaken++
		s.record(trace, x, t)
	}
	return nil
}

func (s *Simulator) runAdaptive(ctx context.Context, trace *Trace, x State, cfg Config, start time.Time) error {
	t := 0.0
	dt := cfg.Dt

	for i := 0; t < cfg.Duration; i++ {
		if err := s.budget(ctx, cfg, i, start); err != nil {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		h := math.Min(dt, cfg.Duration-t)
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}

		newX, used, next, err := s.adaptiveStep(trace, x, t, h, cfg)
		if err != nil {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		tNext := t + used
		if cfg.Duration-tNext <= 1e-12*cfg.Duration {
			tNext = cfg.Duration
		}
		if err := s.check(newX, tNext, cfg); err != nil {
			return &SimulationError{Step: i + 1, Time: tNext, State: newX, Wrapped: err}
		}

		x = newX
		t = tNext
		dt = next
		trace.StepsTaken++
		s.record(trace, x, t)
	}
	return nil
}

// adaptiveStep retries with smaller steps until the error estimate is within
// tolerance. Integrators without an embedded estimate use step doubling.
func (s *Simulator) adaptiveStep(trace *Trace, x State, t, h float64, cfg Config) (State, float64, float64, error) {
	for {
		var cand State
		var next, ratio float64

		if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
			cand, next, ratio = adaptive.StepAdaptive(s.sys, x, t, h, cfg.Tolerance)
		} else {
			x1 := s.integrator.Step(s.sys, x, t, h)
			xHalf := s.integrator.Step(s.sys, x, t, h/2)
			x2 := s.integrator.Step(s.sys, xHalf, t+h/2, h/2)
			cand = x2
			ratio = x1.Sub(x2).Norm() / cfg.Tolerance
			next = h
			if ratio < 0.1 {
				next = 2 * h
			}
		}

		if ratio <= 1 {
			next = math.Max(next, cfg.MinDt)
			if cfg.MaxDt > 0 {
				next = math.Min(next, cfg.MaxDt)
			}
			return cand, h, next, nil
		}

		trace.Rejected++
		shrunk := h / 2
		if !math.IsNaN(next) && next < h {
			shrunk = next
		}
		if shrunk < cfg.MinDt || shrunk == 0 {
			return nil, 0, 0, fmt.Errorf("%w: %w (h=%g, error ratio %g)",
				ErrNumericDivergence, ErrStepTooSmall, shrunk, ratio)
		}
		h = shrunk
	}
}

func (s *Simulator) budget(ctx context.Context, cfg Config, step int, start time.Time) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
	default:
	}
	if cfg.MaxSteps > 0 && step >= cfg.MaxSteps {
		return fmt.Errorf("%w after %d steps", ErrStepBudget, step)
	}
	if cfg.WallBudget > 0 && step%256 == 0 && time.Since(start) > cfg.WallBudget {
		return fmt.Errorf("%w after %v", ErrWallBudget, cfg.WallBudget)
	}
	return nil
}

func (s *Simulator) check(x State, t float64, cfg Config) error {
	if !x.IsValid() {
		return fmt.Errorf("%w: non-finite state", ErrNumericDivergence)
	}
	if cfg.DivergenceLimit > 0 {
		if m := x.MaxAbs(); m > cfg.DivergenceLimit {
			return fmt.Errorf("%w: state magnitude %g exceeds %g", ErrNumericDivergence, m, cfg.DivergenceLimit)
		}
	}
	if s.guard != nil {
		if err := s.guard.Check(x, t); err != nil {
			return interrupted(err)
		}
	}
	return nil
}

// interrupted classifies a guard failure. A system stopped by its watcher
// reports the run's budget or cancellation instead of a divergence.
func interrupted(err error) error {
	switch {
	case errors.Is(err, ErrWallBudget):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrContextCanceled, err)
	default:
		return fmt.Errorf("%w: %w", ErrNumericDivergence, err)
	}
}

func (s *Simulator) record(trace *Trace, x State, t float64) {
	rec := Record{Time: t, State: x.Clone()}
	if s.inspector != nil {
		probe := s.inspector.Inspect(x, t)
		rec.Values = probe.Values
		for _, w := range probe.Warnings {
			s.warn(trace, w)
		}
	}
	trace.Records = append(trace.Records, rec)

	for _, m := range s.metrics {
		m.Observe(rec)
	}
	for _, obs := range s.observers {
		obs.OnStep(rec)
	}
}

// warn keeps the first occurrence of each warning kind per source and counts
// the rest.
func (s *Simulator) warn(trace *Trace, w Warning) {
	key := w.key()
	trace.WarningCounts[key]++
	if trace.WarningCounts[key] > 1 {
		return
	}
	trace.Warnings = append(trace.Warnings, w)
	s.logger.Warn(string(w.Kind), "source", w.Source, "t", w.Time, "value", w.Value)
}
