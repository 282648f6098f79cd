package config

import (
	"math"
	"time"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/hydraulic"
	"github.com/san-kum/hydrorig/internal/integrators"
	"github.com/san-kum/hydrorig/internal/load"
	"github.com/san-kum/hydrorig/internal/pump"
	"github.com/san-kum/hydrorig/internal/valve"
)

const (
	DefaultL               = 1.5
	DefaultM               = 2500.0
	DefaultI               = 100.0
	DefaultC2              = hydraulic.DefaultLeakage
	DefaultDt              = 1e-4
	DefaultTEnd            = 0.04
	DefaultTolerance       = 1e-6
	DefaultSmallAngleLimit = 0.2
)

// Valve profile names.
const (
	ProfileTriangle = "triangle"
	ProfileConstant = "constant"
	ProfileClosed   = "closed"
	ProfileScript   = "script"
)

// Config is one simulation run. Field tags double as the option names in
// YAML and CUE files.
type Config struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	L    float64 `yaml:"L" json:"L"`
	M    float64 `yaml:"M" json:"M"`
	I    float64 `yaml:"I" json:"I"`
	Qmax float64 `yaml:"Qmax" json:"Qmax"`
	C2   float64 `yaml:"C2" json:"C2"`
	// Fext defaults to the rod's weight when unset.
	Fext *float64 `yaml:"Fext,omitempty" json:"Fext,omitempty"`

	Dt         float64 `yaml:"dt" json:"dt"`
	TEnd       float64 `yaml:"tEnd" json:"tEnd"`
	Integrator string  `yaml:"integrator" json:"integrator"`
	Adaptive   bool    `yaml:"adaptive,omitempty" json:"adaptive,omitempty"`
	Tolerance  float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MaxSteps   int     `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
	WallBudget float64 `yaml:"wall_budget_s,omitempty" json:"wall_budget_s,omitempty"`

	SmallAngleLimit   float64 `yaml:"small_angle_limit" json:"small_angle_limit"`
	DisableHydraulics bool    `yaml:"disable_hydraulics,omitempty" json:"disable_hydraulics,omitempty"`

	Cylinder  CylinderConfig `yaml:"cylinder" json:"cylinder"`
	Valve     ValveConfig    `yaml:"valve" json:"valve"`
	InitState InitState      `yaml:"init_state" json:"init_state"`
}

type CylinderConfig struct {
	Area        float64 `yaml:"area" json:"area"`
	DeadVolume  float64 `yaml:"dead_volume" json:"dead_volume"`
	BulkModulus float64 `yaml:"bulk_modulus" json:"bulk_modulus"`
	Density     float64 `yaml:"density" json:"density"`
	Discharge   float64 `yaml:"discharge" json:"discharge"`
}

type ValveConfig struct {
	Profile string  `yaml:"profile" json:"profile"`
	Period  float64 `yaml:"period" json:"period"`
	MaxArea float64 `yaml:"max_area" json:"max_area"`
	AreaA   float64 `yaml:"area_a,omitempty" json:"area_a,omitempty"`
	AreaB   float64 `yaml:"area_b,omitempty" json:"area_b,omitempty"`
	// Script is a Starlark file defining area(t, side). Relative paths are
	// resolved against the config file's directory.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
}

type InitState struct {
	Z        float64 `yaml:"z" json:"z"`
	ZDot     float64 `yaml:"zdot" json:"zdot"`
	Theta    float64 `yaml:"theta" json:"theta"`
	ThetaDot float64 `yaml:"thetadot" json:"thetadot"`
	PA       float64 `yaml:"pA" json:"pA"`
	PB       float64 `yaml:"pB" json:"pB"`
}

func DefaultConfig() *Config {
	return &Config{
		L:               DefaultL,
		M:               DefaultM,
		I:               DefaultI,
		Qmax:            pump.DefaultQmax,
		C2:              DefaultC2,
		Dt:              DefaultDt,
		TEnd:            DefaultTEnd,
		Integrator:      "rk4",
		Tolerance:       DefaultTolerance,
		SmallAngleLimit: DefaultSmallAngleLimit,
		Cylinder: CylinderConfig{
			Area:        hydraulic.DefaultArea,
			DeadVolume:  hydraulic.DefaultDeadVolume,
			BulkModulus: hydraulic.DefaultBulkModulus,
			Density:     hydraulic.DefaultDensity,
			Discharge:   hydraulic.DefaultDischarge,
		},
		Valve: ValveConfig{
			Profile: ProfileTriangle,
			Period:  valve.DefaultPeriod,
			MaxArea: valve.DefaultMaxArea,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Fext != nil {
		f := *c.Fext
		out.Fext = &f
	}
	return &out
}

func (c *Config) ExternalForce() float64 {
	if c.Fext != nil {
		return *c.Fext
	}
	return -load.Gravity * c.M
}

func (c *Config) SetExternalForce(f float64) {
	c.Fext = &f
}

func (c *Config) Rod() load.Rod {
	return load.Rod{Length: c.L, Mass: c.M, Inertia: c.I, ExternalForce: c.ExternalForce()}
}

func (c *Config) CylinderParams() hydraulic.Cylinder {
	return hydraulic.Cylinder{
		Area:        c.Cylinder.Area,
		DeadVolume:  c.Cylinder.DeadVolume,
		BulkModulus: c.Cylinder.BulkModulus,
		Density:     c.Cylinder.Density,
		Discharge:   c.Cylinder.Discharge,
		Leakage:     c.C2,
	}
}

// Validate checks every parameter before the first step and names the
// offending field.
func (c *Config) Validate() error {
	if field, err := c.Rod().Validate(); err != nil {
		return dynamo.NewConfigError(field, fieldValue(c, field), err.Error())
	}
	if !(c.Qmax >= 0) || math.IsInf(c.Qmax, 0) {
		return dynamo.NewConfigError("Qmax", c.Qmax, "must be non-negative and finite")
	}
	if field, err := c.CylinderParams().Validate(); err != nil {
		name := field
		if field != "C2" {
			name = "cylinder." + field
		}
		return dynamo.NewConfigError(name, fieldValue(c, field), err.Error())
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return dynamo.NewConfigError("integrator", c.Integrator, err.Error())
	}
	if c.SmallAngleLimit < 0 || math.IsNaN(c.SmallAngleLimit) {
		return dynamo.NewConfigError("small_angle_limit", c.SmallAngleLimit, "must not be negative")
	}
	if c.WallBudget < 0 || math.IsNaN(c.WallBudget) {
		return dynamo.NewConfigError("wall_budget_s", c.WallBudget, "must not be negative")
	}
	if err := c.validateValve(); err != nil {
		return err
	}
	if !c.initVector().IsValid() {
		return dynamo.NewConfigError("init_state", c.InitState, "must be finite")
	}
	return c.Sim().Validate()
}

func (c *Config) validateValve() error {
	v := c.Valve
	switch v.Profile {
	case ProfileTriangle:
		if !(v.Period > 0) || math.IsInf(v.Period, 0) {
			return dynamo.NewConfigError("valve.period", v.Period, "must be positive and finite")
		}
		if !(v.MaxArea >= 0) || math.IsInf(v.MaxArea, 0) {
			return dynamo.NewConfigError("valve.max_area", v.MaxArea, "must be non-negative and finite")
		}
	case ProfileConstant:
		if !(v.AreaA >= 0) || math.IsInf(v.AreaA, 0) {
			return dynamo.NewConfigError("valve.area_a", v.AreaA, "must be non-negative and finite")
		}
		if !(v.AreaB >= 0) || math.IsInf(v.AreaB, 0) {
			return dynamo.NewConfigError("valve.area_b", v.AreaB, "must be non-negative and finite")
		}
	case ProfileClosed:
	case ProfileScript:
		if v.Script == "" {
			return dynamo.NewConfigError("valve.script", v.Script, "script profile needs a file")
		}
	default:
		return dynamo.NewConfigError("valve.profile", v.Profile, "must be triangle, constant, closed or script")
	}
	return nil
}

func fieldValue(c *Config, field string) any {
	switch field {
	case "L":
		return c.L
	case "M":
		return c.M
	case "I":
		return c.I
	case "Fext":
		return c.ExternalForce()
	case "C2":
		return c.C2
	case "area":
		return c.Cylinder.Area
	case "dead_volume":
		return c.Cylinder.DeadVolume
	case "bulk_modulus":
		return c.Cylinder.BulkModulus
	case "density":
		return c.Cylinder.Density
	case "discharge":
		return c.Cylinder.Discharge
	}
	return nil
}

// Sim returns the time-stepping settings.
func (c *Config) Sim() dynamo.Config {
	sim := dynamo.DefaultConfig()
	sim.Dt = c.Dt
	sim.Duration = c.TEnd
	sim.Adaptive = c.Adaptive || integrators.IsAdaptive(c.Integrator)
	if c.Tolerance > 0 {
		sim.Tolerance = c.Tolerance
	}
	if c.MaxSteps > 0 {
		sim.MaxSteps = c.MaxSteps
	}
	sim.WallBudget = time.Duration(c.WallBudget * float64(time.Second))
	return sim
}

// InitialState is the full state vector [z, zdot, theta, thetadot, pA, pB].
func (c *Config) InitialState() dynamo.State {
	return c.initVector()
}

func (c *Config) initVector() dynamo.State {
	s := c.InitState
	return dynamo.State{s.Z, s.ZDot, s.Theta, s.ThetaDot, s.PA, s.PB}
}
