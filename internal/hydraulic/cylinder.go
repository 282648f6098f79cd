// Package hydraulic models one pump-fed control valve and cylinder chamber.
//
// Pump flow enters a supply node that leaks in proportion to its pressure
// (C2). What does not leak passes the control valve orifice into the chamber:
//
//	Qmax - C2*ps = Q1
//	Q1 = Cd*a*sgn(ps-p)*sqrt(2|ps-p|/rho)
//
// Both relations are solved for Q1 in closed form, so the supply pressure is
// never a state. The chamber pressure p is compressible:
//
//	dp/dt = beta/V * (Q1 - A*v),  V = V0 + A*x
//
// and pushes the piston with F = A*p.
package hydraulic

import (
	"fmt"
	"math"
)

const (
	DefaultArea        = 1e-3 // m²
	DefaultDeadVolume  = 1e-4 // m³
	DefaultBulkModulus = 7e8  // Pa
	DefaultDensity     = 850  // kg/m³
	DefaultDischarge   = 0.61
	DefaultLeakage     = 3e-9 // m³/(s·Pa)

	// The chamber never shrinks below this share of its dead volume.
	minVolumeFraction = 0.05
)

type Cylinder struct {
	Area        float64
	DeadVolume  float64
	BulkModulus float64
	Density     float64
	Discharge   float64
	Leakage     float64
}

func DefaultCylinder() Cylinder {
	return Cylinder{
		Area:        DefaultArea,
		DeadVolume:  DefaultDeadVolume,
		BulkModulus: DefaultBulkModulus,
		Density:     DefaultDensity,
		Discharge:   DefaultDischarge,
		Leakage:     DefaultLeakage,
	}
}

// Validate returns the name of the first non-physical field.
func (c Cylinder) Validate() (string, error) {
	positive := []struct {
		name string
		v    float64
	}{
		{"area", c.Area},
		{"dead_volume", c.DeadVolume},
		{"bulk_modulus", c.BulkModulus},
		{"density", c.Density},
		{"discharge", c.Discharge},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return f.name, fmt.Errorf("must be positive and finite, got %v", f.v)
		}
	}
	if !(c.Leakage >= 0) || math.IsInf(c.Leakage, 0) {
		return "C2", fmt.Errorf("must be non-negative and finite, got %v", c.Leakage)
	}
	return "", nil
}

// orifice is the valve conductance k with Q = k*sgn(dp)*sqrt(|dp|).
func (c Cylinder) orifice(valveArea float64) float64 {
	if valveArea <= 0 {
		return 0
	}
	return c.Discharge * valveArea * math.Sqrt(2/c.Density)
}

// ValveFlow is the flow through the control valve, positive into the chamber.
// A closed valve seals the chamber.
func (c Cylinder) ValveFlow(pumpFlow, valveArea, pressure float64) float64 {
	k := c.orifice(valveArea)
	drive := pumpFlow - c.Leakage*pressure
	if k == 0 || drive == 0 {
		return 0
	}
	// Root of C2*x² + k*x - |drive| = 0 with x = sqrt(|ps-p|), written in
	// the form that stays finite when C2 is zero.
	mag := 2 * math.Abs(drive) * k / (k + math.Sqrt(k*k+4*c.Leakage*math.Abs(drive)))
	return math.Copysign(mag, drive)
}

// SupplyPressure is the pump-side pressure consistent with ValveFlow.
func (c Cylinder) SupplyPressure(pumpFlow, valveArea, pressure float64) float64 {
	k := c.orifice(valveArea)
	if k == 0 {
		if c.Leakage == 0 {
			return math.Inf(1)
		}
		return pumpFlow / c.Leakage
	}
	q := c.ValveFlow(pumpFlow, valveArea, pressure)
	return pressure + math.Copysign((q/k)*(q/k), q)
}

// Volume is the oil volume for a piston displaced by x from its rest position.
func (c Cylinder) Volume(x float64) float64 {
	return math.Max(c.DeadVolume+c.Area*x, c.DeadVolume*minVolumeFraction)
}

type Input struct {
	PumpFlow  float64
	ValveArea float64
	Pressure  float64
	Position  float64
	Velocity  float64
}

type Output struct {
	Force        float64
	Pressure     float64
	Flow         float64
	PressureRate float64
	// Clamped is set when the chamber pressure state was negative. The force
	// uses zero pressure and the rate is not allowed to push it lower.
	Clamped bool
}

func (c Cylinder) Evaluate(in Input) Output {
	out := Output{Pressure: in.Pressure}
	if in.Pressure < 0 {
		out.Pressure = 0
		out.Clamped = true
	}

	out.Flow = c.ValveFlow(in.PumpFlow, in.ValveArea, out.Pressure)
	out.PressureRate = c.BulkModulus / c.Volume(in.Position) * (out.Flow - c.Area*in.Velocity)
	if out.Clamped && out.PressureRate < 0 {
		out.PressureRate = 0
	}
	out.Force = c.Area * out.Pressure
	return out
}
