package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, ratio := integrator.StepAdaptive(dyn, x0, 0, 0.1, 1e-12)

	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
	if ratio <= 1 {
		t.Errorf("a 0.1 step at tol 1e-12 should be rejected, ratio %g", ratio)
	}
	if newDt >= 0.1 {
		t.Errorf("rejected step should shrink dt, got %g", newDt)
	}

	_, grow, small := integrator.StepAdaptive(dyn, x0, 0, 1e-3, 1e-6)
	if small > 1 {
		t.Errorf("a 1e-3 step at tol 1e-6 should be accepted, ratio %g", small)
	}
	if grow <= 1e-3 {
		t.Errorf("accepted step with small error should grow dt, got %g", grow)
	}
}

func TestRK45_Deterministic(t *testing.T) {
	dyn := &harmonicOscillator{}
	a, da, ra := NewRK45().StepAdaptive(dyn, dynamo.State{1, 0}, 0, 0.05, 1e-7)
	b, db, rb := NewRK45().StepAdaptive(dyn, dynamo.State{1, 0}, 0, 0.05, 1e-7)
	if a[0] != b[0] || a[1] != b[1] || da != db || ra != rb {
		t.Error("StepAdaptive is not deterministic")
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4 = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45 = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	if math.Abs(dyn.Energy(x45)-0.5) > math.Abs(dyn.Energy(x4)-0.5) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
