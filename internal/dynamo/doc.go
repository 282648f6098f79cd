// Package dynamo provides the time-stepping core for the hydraulic rig.
//
// The package defines the interfaces and types used to integrate an ordinary
// differential equation dX/dt = f(X, t):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems
//   - [Integrator]: numerical stepping interface
//   - [Inspector]: optional per-step outputs recorded alongside the state
//   - [Simulator]: orchestrates a run and accumulates the [Trace]
//
// # Example
//
//	sys, _ := rig.FromConfig(cfg)
//	s := dynamo.New(sys, integrators.NewRK4())
//	trace, err := s.Run(ctx, cfg.InitialState(), cfg.Sim())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Integrators keep scratch buffers,
// so every concurrent run needs its own Simulator and Integrator. Use
// [RunEnsemble] to fan independent runs out over a worker pool.
package dynamo
