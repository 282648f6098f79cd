package integrators

import (
	"testing"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

// sixState mimics the rig layout: two mechanical pairs and two pressures.
type sixState struct{}

func (s *sixState) StateDim() int { return 6 }
func (s *sixState) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0] + 1e-7*(x[4]+x[5]), x[3], -x[2] + 1e-7*(x[5]-x[4]), -x[1], x[1]}
}

func BenchmarkRK4_SixState(b *testing.B) {
	integrator := NewRK4()
	dyn := &sixState{}
	x := dynamo.State{0, 0, 0, 0, 1e6, 1e6}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 1e-4)
	}
}
