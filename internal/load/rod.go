// Package load is the rigid rod carried by the two cylinders. Cylinder A
// pushes at -L/2 from the center and cylinder B at +L/2.
package load

import (
	"fmt"
	"math"
)

const Gravity = 9.81

type Rod struct {
	Length        float64
	Mass          float64
	Inertia       float64
	ExternalForce float64
}

// NewRod returns a rod loaded by its own weight.
func NewRod(length, mass, inertia float64) Rod {
	return Rod{
		Length:        length,
		Mass:          mass,
		Inertia:       inertia,
		ExternalForce: -Gravity * mass,
	}
}

// Validate returns the name of the first non-physical field.
func (r Rod) Validate() (string, error) {
	if !(r.Length > 0) || math.IsInf(r.Length, 0) {
		return "L", fmt.Errorf("must be positive and finite, got %v", r.Length)
	}
	if !(r.Mass > 0) || math.IsInf(r.Mass, 0) {
		return "M", fmt.Errorf("must be positive and finite, got %v", r.Mass)
	}
	if !(r.Inertia > 0) || math.IsInf(r.Inertia, 0) {
		return "I", fmt.Errorf("must be positive and finite, got %v", r.Inertia)
	}
	if math.IsNaN(r.ExternalForce) || math.IsInf(r.ExternalForce, 0) {
		return "Fext", fmt.Errorf("must be finite, got %v", r.ExternalForce)
	}
	return "", nil
}

// State is the rod's center displacement and tilt. Theta is assumed small.
type State struct {
	Z        float64
	ZDot     float64
	Theta    float64
	ThetaDot float64
}

// Piston is one rod end as seen by its cylinder.
type Piston struct {
	Z    float64
	ZDot float64
}

func (r Rod) Pistons(s State) (a, b Piston) {
	half := r.Length / 2
	a = Piston{Z: s.Z - s.Theta*half, ZDot: s.ZDot - s.ThetaDot*half}
	b = Piston{Z: s.Z + s.Theta*half, ZDot: s.ZDot + s.ThetaDot*half}
	return a, b
}

// Accelerations returns the linear and angular acceleration under the two
// piston forces and the external force acting at the center.
func (r Rod) Accelerations(fa, fb float64) (zddot, thetaddot float64) {
	zddot = (fb + fa + r.ExternalForce) / r.Mass
	thetaddot = (r.Length / 2) * (fb - fa) / r.Inertia
	return zddot, thetaddot
}

func (r Rod) Derive(s State, fa, fb float64) State {
	zddot, thetaddot := r.Accelerations(fa, fb)
	return State{
		Z:        s.ZDot,
		ZDot:     zddot,
		Theta:    s.ThetaDot,
		ThetaDot: thetaddot,
	}
}
