package metrics

import (
	"math"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

// ForceImbalance is the mean |F_b - F_a| over the run, the quantity that
// drives the rod's rotation.
type ForceImbalance struct {
	name    string
	sum     float64
	samples int
}

func NewForceImbalance() *ForceImbalance {
	return &ForceImbalance{
		name: "force_imbalance",
	}
}

func (f *ForceImbalance) Name() string {
	return f.name
}

func (f *ForceImbalance) Observe(rec dynamo.Record) {
	if len(rec.Values) < 2 {
		return
	}
	f.sum += math.Abs(rec.Values[1] - rec.Values[0])
	f.samples++
}

func (f *ForceImbalance) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.sum / float64(f.samples)
}

func (f *ForceImbalance) Reset() {
	f.sum = 0
	f.samples = 0
}
