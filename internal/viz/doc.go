// Package viz renders run summaries and sweep progress on the terminal.
//
//   - [RenderSummary]: styled block with metrics, warnings and a tilt sparkline
//   - [SweepModel]: Bubble Tea model that follows an ensemble of runs
//   - [RunSweep]: drives a [SweepModel] while the runs execute
package viz
