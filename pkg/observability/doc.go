/*
Package observability exposes simulation activity as Prometheus metrics.

Metrics implements the simulator lifecycle hooks, so wiring it into an
engine is one option:

	m := observability.NewMetrics(nil)
	sim, err := simulator.NewSequentialSimulator(p, simulator.WithHooks(m.Hooks()))
*/
package observability
