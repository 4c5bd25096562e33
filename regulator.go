package qsim

/*
Regulator watches the engine's metrics and tells it when to hold back. The
engine consults its regulators before every operation that grows the state
vector.
*/
type Regulator interface {
	// Observe updates the regulator's view of the engine.
	Observe(metrics *Metrics)

	// Limit reports whether growing the state now would exceed a bound.
	Limit() bool

	// Renormalize refreshes any measurement the regulator caches.
	Renormalize()
}
