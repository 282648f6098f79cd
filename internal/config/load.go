package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// schema closes the accepted option set for .cue files. Every field is
// optional; unset fields keep their defaults.
const schema = `
name?:               string
L?:                  number & >0
M?:                  number & >0
I?:                  number & >0
Qmax?:               number & >=0
C2?:                 number & >=0
Fext?:               number
dt?:                 number & >0
tEnd?:               number & >0
integrator?:         "euler" | "rk4" | "rk45"
adaptive?:           bool
tolerance?:          number & >0
max_steps?:          int & >=0
wall_budget_s?:      number & >=0
small_angle_limit?:  number & >=0
disable_hydraulics?: bool
cylinder?: close({
	area?:         number & >0
	dead_volume?:  number & >0
	bulk_modulus?: number & >0
	density?:      number & >0
	discharge?:    number & >0
})
valve?: close({
	profile?:  "triangle" | "constant" | "closed" | "script"
	period?:   number & >0
	max_area?: number & >=0
	area_a?:   number & >=0
	area_b?:   number & >=0
	script?:   string
})
init_state?: close({
	z?:        number
	zdot?:     number
	theta?:    number
	thetadot?: number
	pA?:       number
	pB?:       number
})
`

// Load reads a YAML or CUE config on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		err = decodeCUE(path, data, cfg)
	default:
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Valve.Script != "" && !filepath.IsAbs(cfg.Valve.Script) {
		cfg.Valve.Script = filepath.Join(filepath.Dir(path), cfg.Valve.Script)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML rejects keys that match no field. An empty file keeps the
// defaults.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	s := ctx.CompileString("close({" + schema + "})")
	if err := s.Err(); err != nil {
		return err
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return err
	}

	unified := s.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return unified.Decode(cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
