package valve

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Script evaluates a Starlark function `area(t, side)` for custom schedules:
//
//	def area(t, side):
//	    return 1.2e-5 if side == "A" else 0.0
//
// Results are clamped to be non-negative. Evaluation errors are sticky: the
// first one is kept, reported by Err, and the area falls back to zero.
// A Script must not be shared between concurrent runs.
type Script struct {
	// MaxSteps bounds the Starlark steps of one area call. Zero means
	// unbounded; Watch then remains the only limit.
	MaxSteps uint64

	thread *starlark.Thread
	fn     starlark.Callable

	mu       sync.Mutex
	err      error
	canceled error
}

// DefaultMaxSteps is far above any reasonable schedule and stops a runaway
// loop within milliseconds.
const DefaultMaxSteps = 1_000_000

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// CompileScript loads src and checks that it defines area(t, side) returning
// a number for both sides at t=0.
func CompileScript(name, src string) (*Script, error) {
	thread := &starlark.Thread{Name: "valve:" + name}
	thread.SetMaxExecutionSteps(DefaultMaxSteps)
	predeclared := starlark.StringDict{
		"pi":   starlark.Float(math.Pi),
		"mod":  starlark.NewBuiltin("mod", builtinMod),
		"sin":  starlark.NewBuiltin("sin", unary(math.Sin)),
		"clip": starlark.NewBuiltin("clip", builtinClip),
	}

	globals, err := starlark.ExecFileOptions(fileOptions, thread, name, src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("valve script %s: %w", name, err)
	}

	v, ok := globals["area"]
	if !ok {
		return nil, fmt.Errorf("valve script %s: no area(t, side) function", name)
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("valve script %s: area is %s, not a function", name, v.Type())
	}

	s := &Script{MaxSteps: DefaultMaxSteps, thread: thread, fn: fn}
	for _, side := range []Side{SideA, SideB} {
		if _, err := s.eval(0, side); err != nil {
			return nil, fmt.Errorf("valve script %s: %w", name, err)
		}
	}
	return s, nil
}

func (s *Script) Area(t float64, side Side) float64 {
	a, err := s.eval(t, side)
	if err != nil {
		s.mu.Lock()
		if s.canceled != nil {
			err = s.canceled
		}
		if s.err == nil {
			s.err = fmt.Errorf("area(%g, %s): %w", t, side, err)
		}
		s.mu.Unlock()
		return 0
	}
	return Clamp(a, 0)
}

// Err returns the first evaluation error, if any.
func (s *Script) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Watch cancels the running and all later area calls once ctx ends. The
// latched error wraps context.Cause(ctx). stop releases the watcher.
func (s *Script) Watch(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.canceled = context.Cause(ctx)
			s.mu.Unlock()
			s.thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (s *Script) eval(t float64, side Side) (float64, error) {
	if s.MaxSteps > 0 {
		s.thread.SetMaxExecutionSteps(s.thread.ExecutionSteps() + s.MaxSteps)
	} else {
		s.thread.SetMaxExecutionSteps(math.MaxUint64)
	}
	v, err := starlark.Call(s.thread, s.fn, starlark.Tuple{starlark.Float(t), starlark.String(side.String())}, nil)
	if err != nil {
		return 0, err
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("area returned %s, want a number", v.Type())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("area returned non-finite %v", f)
	}
	return f, nil
}

func unary(fn func(float64) float64) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var x starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
			return nil, err
		}
		f, ok := starlark.AsFloat(x)
		if !ok {
			return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), x.Type())
		}
		return starlark.Float(fn(f)), nil
	}
}

func builtinMod(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
		return nil, err
	}
	fx, ok1 := starlark.AsFloat(x)
	fy, ok2 := starlark.AsFloat(y)
	if !ok1 || !ok2 || fy == 0 {
		return nil, fmt.Errorf("mod: want two numbers with a non-zero divisor")
	}
	r := math.Mod(fx, fy)
	if r < 0 {
		r += math.Abs(fy)
	}
	return starlark.Float(r), nil
}

func builtinClip(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, lo, hi starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &x, &lo, &hi); err != nil {
		return nil, err
	}
	fx, ok1 := starlark.AsFloat(x)
	flo, ok2 := starlark.AsFloat(lo)
	fhi, ok3 := starlark.AsFloat(hi)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("clip: want three numbers")
	}
	return starlark.Float(math.Min(math.Max(fx, flo), fhi)), nil
}
