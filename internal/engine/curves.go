package engine

import (
	"math"
	"math/rand"
)

// The reference effect shapes shared by non-linear scenarios. Keeping them
// here keeps every rule's pedagogy on the same math.

// LogSaturation returns k * ln(1 + amount): steep at first, flat later.
// Models efforts where users overestimate additive impact.
func LogSaturation(k, amount float64) float64 {
	return k * math.Log1p(amount)
}

// InverseU returns a*amount - b*amount^2: small amounts help, large amounts
// hurt. The peak sits at amount = a / (2b).
func InverseU(a, b, amount float64) float64 {
	return a*amount - b*amount*amount
}

// InverseUPeak returns the amount that maximizes InverseU(a, b, ·).
func InverseUPeak(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / (2 * b)
}

// Threshold returns below when amount < t and above otherwise: no visible
// effect until a step change. Used for campaign-style actions.
func Threshold(t, below, above, amount float64) float64 {
	if amount < t {
		return below
	}
	return above
}

// Rand returns a deterministic random stream for one turn of one session.
// Deriving the stream from (seed, turn) keeps rules pure: the same state and
// decision always draw the same numbers, while distinct sessions and turns
// stay independent.
func Rand(seed int64, turn int) *rand.Rand {
	mixed := uint64(seed) ^ (uint64(turn) * 0x9E3779B97F4A7C15)
	return rand.New(rand.NewSource(int64(mixed)))
}
