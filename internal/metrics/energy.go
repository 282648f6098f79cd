package metrics

import (
	"math"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/load"
	"github.com/san-kum/hydrorig/internal/rig"
)

// EnergyDrift is the largest departure of the rod's mechanical energy from
// its value at the first sample. With the hydraulics off it measures the
// integrator's error; with them on, the net work of the cylinders.
type EnergyDrift struct {
	name    string
	rod     load.Rod
	samples int
	initial float64
	drift   float64
}

func NewEnergyDrift(rod load.Rod) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		rod:  rod,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(rec dynamo.Record) {
	if len(rec.State) < rig.StateDim {
		return
	}
	energy := Mechanical(e.rod, rig.LoadState(rec.State))
	if e.samples == 0 {
		e.initial = energy
	}
	e.drift = math.Max(e.drift, math.Abs(energy-e.initial))
	e.samples++
}

func (e *EnergyDrift) Value() float64 { return e.drift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.drift = 0
	e.samples = 0
}

// Mechanical is the kinetic energy of translation and rotation plus the
// work done against the external force, relative to z = 0.
func Mechanical(rod load.Rod, s load.State) float64 {
	ke := 0.5*rod.Mass*s.ZDot*s.ZDot + 0.5*rod.Inertia*s.ThetaDot*s.ThetaDot
	pe := -rod.ExternalForce * s.Z
	return ke + pe
}
