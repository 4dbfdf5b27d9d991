package components

// Organism bundles identity, life state and the per-step counters.
type Organism struct {
	ID      uint32
	Species uint8 // index into the species table
	Gender  Gender
	Age     int // steps lived
	Food    int // steps left before starvation (animals only)
	Alive   bool
	Cause   DeathCause // set once when Alive becomes false
}
