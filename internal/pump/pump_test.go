package pump

import (
	"math"
	"testing"
)

func TestPump(t *testing.T) {
	if Default().Flow() != DefaultQmax {
		t.Errorf("default flow = %v", Default().Flow())
	}

	p, err := New(0.002)
	if err != nil || p.Flow() != 0.002 {
		t.Errorf("New(0.002) = %v, %v", p, err)
	}

	for _, bad := range []float64{-1, math.NaN()} {
		if _, err := New(bad); err == nil {
			t.Errorf("New(%v) should fail", bad)
		}
	}
}
