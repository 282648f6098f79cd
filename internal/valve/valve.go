// Package valve generates the commanded orifice cross-sections of the two
// control valves as functions of simulation time.
//
// The reference schedule is a periodic triangle: valve B opens linearly from
// zero to its maximum area over half a period and closes again over the other
// half, valve A runs the same waveform half a period ahead. Profiles are pure
// functions of time and never return a negative area.
package valve

import (
	"fmt"
	"math"
)

const (
	DefaultPeriod  = 0.02
	DefaultMaxArea = 1.2e-5
)

type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

type Profile interface {
	Area(t float64, side Side) float64
}

// Triangle is the reference schedule.
type Triangle struct {
	Period  float64
	MaxArea float64
}

func NewTriangle(period, maxArea float64) Triangle {
	return Triangle{Period: period, MaxArea: maxArea}
}

func DefaultTriangle() Triangle {
	return NewTriangle(DefaultPeriod, DefaultMaxArea)
}

func (p Triangle) Area(t float64, side Side) float64 {
	if p.Period <= 0 {
		return 0
	}
	if side == SideA {
		t += p.Period / 2
	}

	phase := math.Mod(t, p.Period)
	if phase < 0 {
		phase += p.Period
	}

	half := p.Period / 2
	var a float64
	if phase <= half {
		a = p.MaxArea * phase / half
	} else {
		a = p.MaxArea * (p.Period - phase) / half
	}
	return Clamp(a, p.MaxArea)
}

// Constant holds both valves at fixed openings.
type Constant struct {
	A, B float64
}

func (c Constant) Area(t float64, side Side) float64 {
	if side == SideA {
		return math.Max(c.A, 0)
	}
	return math.Max(c.B, 0)
}

// Closed keeps both valves shut for the whole run.
func Closed() Constant {
	return Constant{}
}

// Clamp bounds an interpolated area to [0, max]. A non-positive max only
// removes negative artifacts.
func Clamp(a, max float64) float64 {
	if !(a > 0) {
		return 0
	}
	if max > 0 && a > max {
		return max
	}
	return a
}
