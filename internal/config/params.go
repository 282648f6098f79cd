package config

import (
	"fmt"
	"sort"
)

// params maps the scalar options a sweep may vary to their fields.
var params = map[string]func(*Config) *float64{
	"L":                     func(c *Config) *float64 { return &c.L },
	"M":                     func(c *Config) *float64 { return &c.M },
	"I":                     func(c *Config) *float64 { return &c.I },
	"Qmax":                  func(c *Config) *float64 { return &c.Qmax },
	"C2":                    func(c *Config) *float64 { return &c.C2 },
	"dt":                    func(c *Config) *float64 { return &c.Dt },
	"tEnd":                  func(c *Config) *float64 { return &c.TEnd },
	"tolerance":             func(c *Config) *float64 { return &c.Tolerance },
	"small_angle_limit":     func(c *Config) *float64 { return &c.SmallAngleLimit },
	"cylinder.area":         func(c *Config) *float64 { return &c.Cylinder.Area },
	"cylinder.dead_volume":  func(c *Config) *float64 { return &c.Cylinder.DeadVolume },
	"cylinder.bulk_modulus": func(c *Config) *float64 { return &c.Cylinder.BulkModulus },
	"cylinder.density":      func(c *Config) *float64 { return &c.Cylinder.Density },
	"cylinder.discharge":    func(c *Config) *float64 { return &c.Cylinder.Discharge },
	"valve.period":          func(c *Config) *float64 { return &c.Valve.Period },
	"valve.max_area":        func(c *Config) *float64 { return &c.Valve.MaxArea },
	"valve.area_a":          func(c *Config) *float64 { return &c.Valve.AreaA },
	"valve.area_b":          func(c *Config) *float64 { return &c.Valve.AreaB },
	"init_state.theta":      func(c *Config) *float64 { return &c.InitState.Theta },
	"init_state.pA":         func(c *Config) *float64 { return &c.InitState.PA },
	"init_state.pB":         func(c *Config) *float64 { return &c.InitState.PB },
}

// Set assigns a scalar option by its file name. Fext is accepted as well and
// replaces the weight default. The result is not validated.
func (c *Config) Set(name string, v float64) error {
	if name == "Fext" {
		c.SetExternalForce(v)
		return nil
	}
	field, ok := params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %v)", name, ParamNames())
	}
	*field(c) = v
	return nil
}

// Get reads a scalar option by its file name.
func (c *Config) Get(name string) (float64, error) {
	if name == "Fext" {
		return c.ExternalForce(), nil
	}
	field, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q (available: %v)", name, ParamNames())
	}
	return *field(c), nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params)+1)
	for name := range params {
		names = append(names, name)
	}
	names = append(names, "Fext")
	sort.Strings(names)
	return names
}
