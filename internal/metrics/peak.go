package metrics

import (
	"math"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

// Peak tracks the largest magnitude over a set of state components.
type Peak struct {
	name    string
	indices []int
	peak    float64
}

func NewPeak(name string, indices ...int) *Peak {
	return &Peak{name: name, indices: indices}
}

func NewPeakAngle() *Peak    { return NewPeak("peak_theta", rig.IdxTheta) }
func NewPeakPressure() *Peak { return NewPeak("peak_pressure", rig.IdxPA, rig.IdxPB) }

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(rec dynamo.Record) {
	for _, i := range p.indices {
		if i < len(rec.State) {
			p.peak = math.Max(p.peak, math.Abs(rec.State[i]))
		}
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }

// MinDisplacement is the lowest rod center position reached.
type MinDisplacement struct {
	name    string
	min     float64
	samples int
}

func NewMinDisplacement() *MinDisplacement {
	return &MinDisplacement{name: "min_z"}
}

func (m *MinDisplacement) Name() string { return m.name }

func (m *MinDisplacement) Observe(rec dynamo.Record) {
	if len(rec.State) <= rig.IdxZ {
		return
	}
	z := rec.State[rig.IdxZ]
	if m.samples == 0 || z < m.min {
		m.min = z
	}
	m.samples++
}

func (m *MinDisplacement) Value() float64 { return m.min }

func (m *MinDisplacement) Reset() {
	m.min = 0
	m.samples = 0
}
