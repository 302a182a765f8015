package schedule

import (
	"errors"
	"fmt"
	"math/rand"
)

var errIdentitySplit = errors.New("learning window not split evenly")

const (
	identityAttempts = 100
	identityCount    = 8
	learningWindow   = 4
)

// SampleIdentities returns a shuffle of {1,1,1,1,2,2,2,2} whose first four
// entries hold two of each identity.
func SampleIdentities(rng *rand.Rand) ([]int, error) {
	return sampleIdentities(rng, nil)
}

func sampleIdentities(rng *rand.Rand, tr *tracer) ([]int, error) {
	for attempt := 1; attempt <= identityAttempts; attempt++ {
		ids := []int{1, 1, 1, 1, 2, 2, 2, 2}
		for i := len(ids) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			ids[i], ids[j] = ids[j], ids[i]
		}
		if countIdentity(ids[:learningWindow], 1) == learningWindow/2 {
			return ids, nil
		}
		tr.rejected("identities", attempt, errIdentitySplit)
	}
	return nil, newGenerationError(ErrBalanceIdentities, identityAttempts,
		fmt.Errorf("first %d of %d identities never split evenly", learningWindow, identityCount))
}

func countIdentity(ids []int, identity int) int {
	n := 0
	for _, id := range ids {
		if id == identity {
			n++
		}
	}
	return n
}

// balanced reports whether ids holds as many 1s as 2s, give or take one
// when the window length is odd.
func balanced(ids []int) bool {
	diff := countIdentity(ids, 1) - countIdentity(ids, 2)
	if diff < 0 {
		diff = -diff
	}
	return diff <= len(ids)%2
}
