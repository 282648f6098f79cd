// Package metrics summarizes a rig run while it is integrated.
package metrics

import (
	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
)

// Standard returns fresh instances of the metrics reported for every run.
func Standard(cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		NewPeakAngle(),
		NewPeakPressure(),
		NewMinDisplacement(),
		NewForceImbalance(),
		NewEnergyDrift(cfg.Rod()),
		NewStability(cfg.SmallAngleLimit),
	}
}
