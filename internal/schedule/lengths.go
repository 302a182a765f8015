package schedule

import (
	"fmt"
	"math/rand"
)

const lengthAttempts = 1000

// LengthBounds constrains per-episode trial counts and their mean.
type LengthBounds struct {
	Min, Max         int
	MeanMin, MeanMax float64
}

// SampleEpisodeLengths draws n lengths uniformly from [Min, Max] and keeps
// the first draw whose mean lies in [MeanMin, MeanMax].
//
// The whole vector is resampled on every rejection, so the expected number
// of attempts grows quickly as the mean band narrows relative to the length
// range.
func SampleEpisodeLengths(rng *rand.Rand, n int, b LengthBounds) ([]int, error) {
	return sampleEpisodeLengths(rng, n, b, nil)
}

func sampleEpisodeLengths(rng *rand.Rand, n int, b LengthBounds, tr *tracer) ([]int, error) {
	var mean float64
	for attempt := 1; attempt <= lengthAttempts; attempt++ {
		lengths := make([]int, n)
		sum := 0
		for i := range lengths {
			lengths[i] = uniformInt(rng, b.Min, b.Max)
			sum += lengths[i]
		}
		mean = float64(sum) / float64(n)
		if mean >= b.MeanMin && mean <= b.MeanMax {
			return lengths, nil
		}
		tr.rejected("lengths", attempt, fmt.Errorf("mean %.2f outside [%g, %g]", mean, b.MeanMin, b.MeanMax))
	}
	return nil, newGenerationError(ErrEpisodeLengths, lengthAttempts,
		fmt.Errorf("last mean %.2f outside [%g, %g]", mean, b.MeanMin, b.MeanMax))
}
