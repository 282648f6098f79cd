// Package pump models the constant-flow supply shared by both cylinders.
package pump

import "fmt"

const DefaultQmax = 0.005 // m³/s

// Pump delivers the same volumetric flow for the whole run. It is a plain
// value and is handed to both cylinders by copy.
type Pump struct {
	Qmax float64
}

func New(qmax float64) (Pump, error) {
	if !(qmax >= 0) {
		return Pump{}, fmt.Errorf("pump flow must be non-negative, got %v", qmax)
	}
	return Pump{Qmax: qmax}, nil
}

func Default() Pump {
	return Pump{Qmax: DefaultQmax}
}

func (p Pump) Flow() float64 {
	return p.Qmax
}
