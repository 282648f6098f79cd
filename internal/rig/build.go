package rig

import (
	"log/slog"
	"os"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/integrators"
	"github.com/san-kum/hydrorig/internal/pump"
	"github.com/san-kum/hydrorig/internal/valve"
)

// FromConfig validates cfg and assembles the rig it describes.
func FromConfig(cfg *config.Config) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	profile, err := Profile(cfg.Valve)
	if err != nil {
		return nil, err
	}
	p, err := pump.New(cfg.Qmax)
	if err != nil {
		return nil, dynamo.NewConfigError("Qmax", cfg.Qmax, err.Error())
	}

	opts := []Option{WithSmallAngleLimit(cfg.SmallAngleLimit)}
	if cfg.DisableHydraulics {
		opts = append(opts, WithoutHydraulics())
	}
	return New(cfg.Rod(), cfg.CylinderParams(), p, profile, opts...)
}

// Profile builds the valve schedule named by vc.
func Profile(vc config.ValveConfig) (valve.Profile, error) {
	switch vc.Profile {
	case config.ProfileConstant:
		return valve.Constant{A: vc.AreaA, B: vc.AreaB}, nil
	case config.ProfileClosed:
		return valve.Closed(), nil
	case config.ProfileScript:
		src, err := os.ReadFile(vc.Script)
		if err != nil {
			return nil, dynamo.NewConfigError("valve.script", vc.Script, err.Error())
		}
		s, err := valve.CompileScript(vc.Script, string(src))
		if err != nil {
			return nil, dynamo.NewConfigError("valve.script", vc.Script, err.Error())
		}
		return s, nil
	default:
		return valve.NewTriangle(vc.Period, vc.MaxArea), nil
	}
}

// NewSimulator builds a rig, a fresh integrator and a simulator for one run.
func NewSimulator(cfg *config.Config, logger *slog.Logger) (*dynamo.Simulator, *Rig, error) {
	r, err := FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, nil, dynamo.NewConfigError("integrator", cfg.Integrator, err.Error())
	}
	s := dynamo.New(r, integ)
	s.SetLogger(logger)
	return s, r, nil
}
