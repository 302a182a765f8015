package schedule

import (
	"math"
	"math/rand"
	"time"
)

// newRand returns a deterministic *rand.Rand for seed.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// clockSeed picks a seed for runs that did not ask for one.
func clockSeed() int64 {
	return time.Now().UnixNano()
}

// uniformInt draws an integer uniformly from [lo, hi].
func uniformInt(rng *rand.Rand, lo, hi int) int {
	return rng.Intn(hi-lo+1) + lo
}

// uniformFloat draws a float uniformly from [lo, hi).
func uniformFloat(rng *rand.Rand, lo, hi float64) float64 {
	return rng.Float64()*(hi-lo) + lo
}

// roundHalfUp rounds to the nearest integer with ties toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
