// Package rig couples the valves, the pump, the two cylinders and the rod
// into one ODE system.
//
// The state vector is
//
//	[z, zdot, theta, thetadot, pA, pB]
//
// where pA and pB are the chamber pressures of cylinders A and B. Pistons
// hold no state of their own; they are read off the rod.
package rig

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/hydraulic"
	"github.com/san-kum/hydrorig/internal/load"
	"github.com/san-kum/hydrorig/internal/pump"
	"github.com/san-kum/hydrorig/internal/valve"
)

// State vector layout.
const (
	IdxZ = iota
	IdxZDot
	IdxTheta
	IdxThetaDot
	IdxPA
	IdxPB
	StateDim
)

// Output names reported at every accepted step, in order.
const (
	OutFa    = "F_a"
	OutFb    = "F_b"
	OutZa    = "z_a"
	OutZDotA = "zdot_a"
	OutZb    = "z_b"
	OutZDotB = "zdot_b"
	OutAreaA = "area_a"
	OutAreaB = "area_b"
	OutFlowA = "q_a"
	OutFlowB = "q_b"
	// Pump-side pressures. A pump dead-headed against a closed valve with
	// no leakage path has no finite supply pressure and reports 0.
	OutSupplyA = "ps_a"
	OutSupplyB = "ps_b"
)

var outputs = []string{
	OutFa, OutFb, OutZa, OutZDotA, OutZb, OutZDotB,
	OutAreaA, OutAreaB, OutFlowA, OutFlowB, OutSupplyA, OutSupplyB,
}

// ErrTiltRange is reported when the rod turns so far that the piston
// geometry no longer holds.
var ErrTiltRange = errors.New("rig: rod tilt outside model range")

type Rig struct {
	rod        load.Rod
	cyl        hydraulic.Cylinder
	pump       pump.Pump
	valves     valve.Profile
	hydraulics bool
	smallAngle float64
}

type Option func(*Rig)

// WithoutHydraulics zeroes both piston forces. The rod is then driven by the
// external force alone.
func WithoutHydraulics() Option {
	return func(r *Rig) { r.hydraulics = false }
}

// WithSmallAngleLimit sets the tilt above which a small-angle warning is
// raised. Zero disables the warning.
func WithSmallAngleLimit(limit float64) Option {
	return func(r *Rig) { r.smallAngle = limit }
}

func New(rod load.Rod, cyl hydraulic.Cylinder, p pump.Pump, valves valve.Profile, opts ...Option) (*Rig, error) {
	if field, err := rod.Validate(); err != nil {
		return nil, dynamo.NewConfigError(field, nil, err.Error())
	}
	if field, err := cyl.Validate(); err != nil {
		return nil, dynamo.NewConfigError(field, nil, err.Error())
	}
	if valves == nil {
		return nil, dynamo.NewConfigError("valve", nil, "profile is required")
	}

	r := &Rig{
		rod:        rod,
		cyl:        cyl,
		pump:       p,
		valves:     valves,
		hydraulics: true,
		smallAngle: 0.2,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Rig) Rod() load.Rod                { return r.rod }
func (r *Rig) Cylinder() hydraulic.Cylinder { return r.cyl }
func (r *Rig) StateDim() int                { return StateDim }

// LoadState extracts the rod part of x.
func LoadState(x dynamo.State) load.State {
	return load.State{Z: x[IdxZ], ZDot: x[IdxZDot], Theta: x[IdxTheta], ThetaDot: x[IdxThetaDot]}
}

type eval struct {
	rod          load.State
	a, b         load.Piston
	areaA, areaB float64
	outA, outB   hydraulic.Output
	pumpFlow     float64
}

func (r *Rig) evaluate(x dynamo.State, t float64) eval {
	var e eval
	e.rod = LoadState(x)
	e.a, e.b = r.rod.Pistons(e.rod)

	e.areaA = r.valves.Area(t, valve.SideA)
	e.areaB = r.valves.Area(t, valve.SideB)
	q := r.pump.Flow()
	e.pumpFlow = q

	if r.hydraulics {
		e.outA = r.cyl.Evaluate(hydraulic.Input{
			PumpFlow: q, ValveArea: e.areaA, Pressure: x[IdxPA], Position: e.a.Z, Velocity: e.a.ZDot,
		})
		e.outB = r.cyl.Evaluate(hydraulic.Input{
			PumpFlow: q, ValveArea: e.areaB, Pressure: x[IdxPB], Position: e.b.Z, Velocity: e.b.ZDot,
		})
	}
	return e
}

func (r *Rig) Derive(x dynamo.State, t float64) dynamo.State {
	e := r.evaluate(x, t)
	d := r.rod.Derive(e.rod, e.outA.Force, e.outB.Force)

	dx := make(dynamo.State, StateDim)
	dx[IdxZ] = d.Z
	dx[IdxZDot] = d.ZDot
	dx[IdxTheta] = d.Theta
	dx[IdxThetaDot] = d.ThetaDot
	dx[IdxPA] = e.outA.PressureRate
	dx[IdxPB] = e.outB.PressureRate
	return dx
}

func (r *Rig) Outputs() []string { return outputs }

func (r *Rig) Inspect(x dynamo.State, t float64) dynamo.Probe {
	e := r.evaluate(x, t)
	probe := dynamo.Probe{
		Values: []float64{
			e.outA.Force, e.outB.Force,
			e.a.Z, e.a.ZDot,
			e.b.Z, e.b.ZDot,
			e.areaA, e.areaB,
			e.outA.Flow, e.outB.Flow,
			r.supply(e, e.areaA, e.outA), r.supply(e, e.areaB, e.outB),
		},
	}

	if e.outA.Clamped {
		probe.Warnings = append(probe.Warnings, dynamo.Warning{
			Kind: dynamo.WarnPressureRange, Source: valve.SideA.String(), Time: t, Value: x[IdxPA],
		})
	}
	if e.outB.Clamped {
		probe.Warnings = append(probe.Warnings, dynamo.Warning{
			Kind: dynamo.WarnPressureRange, Source: valve.SideB.String(), Time: t, Value: x[IdxPB],
		})
	}
	if r.smallAngle > 0 && math.Abs(x[IdxTheta]) > r.smallAngle {
		probe.Warnings = append(probe.Warnings, dynamo.Warning{
			Kind: dynamo.WarnSmallAngle, Source: "rod", Time: t, Value: x[IdxTheta],
		})
	}
	return probe
}

func (r *Rig) supply(e eval, area float64, out hydraulic.Output) float64 {
	if !r.hydraulics {
		return 0
	}
	ps := r.cyl.SupplyPressure(e.pumpFlow, area, out.Pressure)
	if math.IsInf(ps, 0) || math.IsNaN(ps) {
		return 0
	}
	return ps
}

// Watch hands the run's context to a valve schedule that runs user code.
func (r *Rig) Watch(ctx context.Context) (stop func()) {
	if w, ok := r.valves.(dynamo.Watcher); ok {
		return w.Watch(ctx)
	}
	return func() {}
}

// Check rejects states the rod geometry cannot represent and surfaces
// valve script failures.
func (r *Rig) Check(x dynamo.State, t float64) error {
	if math.Abs(x[IdxTheta]) >= math.Pi/2 {
		return fmt.Errorf("%w: theta=%g", ErrTiltRange, x[IdxTheta])
	}
	if s, ok := r.valves.(interface{ Err() error }); ok {
		if err := s.Err(); err != nil {
			return err
		}
	}
	return nil
}
