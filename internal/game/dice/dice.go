// Package dice provides the randomness abstraction used by the battle engine.
//
// Every combat roll in Scan Fighter is a uniform percentile roll in [0, 100).
// Production code draws from a process-wide crypto source; tests inject a
// fixed-sequence source so that battles replay exactly.
package dice

// Source is the randomness provider for battle rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Percent rolls a uniform integer in [0, 100).
//
// Postcondition: 0 <= result < 100.
func Percent(src Source) int {
	return src.Intn(100)
}

// Chance reports whether a percentile roll lands below pct.
// A pct of 0 or less never succeeds; 100 or more always succeeds, but a roll
// is consumed either way so that the roll sequence does not depend on pct.
func Chance(src Source, pct int) bool {
	return Percent(src) < pct
}

// Pick returns a uniform index in [0, n).
//
// Precondition: n > 0.
func Pick(src Source, n int) int {
	return src.Intn(n)
}
