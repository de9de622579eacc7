// Package dice provides the randomness abstraction used by the combat engine.
//
// Every random draw the engine makes flows through a Source so that a seeded
// Source plus an identical action sequence replays an identical encounter.
package dice

// Source is the randomness provider for combat rolls.
//
// Implementations are not required to be safe for concurrent use; each
// encounter owns its own Source.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// Range maps a unit draw u in [0, 1) onto [lo, hi].
//
// Postcondition: Returns lo when hi <= lo.
func Range(u, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + u*(hi-lo)
}
