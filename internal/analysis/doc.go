// Package analysis post-processes recorded traces.
//
//   - [Spectrum]: one-sided amplitude spectrum of a uniformly sampled signal
//   - [DominantFrequency]: strongest non-DC component
//   - [Crossings]: interpolated level crossings, used for oscillation periods
//   - [NewPortrait]: 2D phase portrait of two state components
//   - [Summarize]: min, max, mean and RMS of a signal
//
// # Example
//
//	theta := trace.Column(rig.IdxTheta)
//	f, amp := analysis.DominantFrequency(theta, cfg.Dt)
package analysis
