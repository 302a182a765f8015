package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTrials lays out episodes from cue patterns using "a"/"b" as colors.
func makeTrials(patterns ...string) []Trial {
	var trials []Trial
	for e, pattern := range patterns {
		for i, c := range pattern {
			trials = append(trials, Trial{
				Episode:         e + 1,
				EpisodeLength:   len(pattern),
				TrialInEpisode:  i + 1,
				CueColor:        string(c),
				TargetAngle:     100,
				ActualAngle:     100,
				TrialIndex:      len(trials) + 1,
				OutcomeOccurred: 1,
			})
		}
	}
	return trials
}

func TestEventBand_Target(t *testing.T) {
	rng := newRand(1)

	assert.Zero(t, EventBand{}.Target(rng, 20))

	// Lower bound floors at 1 and wins over a smaller upper bound.
	assert.Equal(t, 1, EventBand{MinRate: 0.01, MaxRate: 0.01}.Target(rng, 10))

	for i := 0; i < 500; i++ {
		length := uniformInt(rng, 10, 30)
		n := EventBand{MinRate: 0.05, MaxRate: 0.15}.Target(rng, length)
		assert.GreaterOrEqual(t, n, max(1, roundHalfUp(float64(length)*0.05)))
		assert.LessOrEqual(t, n, roundHalfUp(float64(length)*0.15))
	}
}

func TestBaseEligible(t *testing.T) {
	trials := makeTrials("aaaaaabbbaa")

	var got []int
	for i := range trials {
		if baseEligible(trials, i) {
			got = append(got, trials[i].TrialInEpisode)
		}
	}
	// Excludes 1-4, the switch at 7 and 10, and the final trial 11.
	assert.Equal(t, []int{5, 6, 8, 9}, got)
}

func TestAssignOmissions(t *testing.T) {
	for seed := int64(1); seed <= 100; seed++ {
		trials := makeTrials("aaaaaaaaaaaaaaaaaaaa", "bbbbbbaaaaaaaaaaabbbbb")
		band := EventBand{MinRate: 0.1, MaxRate: 0.2}

		chosen := AssignOmissions(newRand(seed), trials, band, false)

		perEpisode := map[int]int{}
		for _, i := range chosen {
			require.True(t, baseEligible(trials, i), "seed %d: trial %d not eligible", seed, i)
			assert.Zero(t, trials[i].OutcomeOccurred)
			perEpisode[trials[i].Episode]++
		}
		assert.LessOrEqual(t, perEpisode[1], 4)
		assert.LessOrEqual(t, perEpisode[2], roundHalfUp(22*0.2))
		assert.GreaterOrEqual(t, perEpisode[1], 2)
		assertNotAdjacent(t, chosen)
	}
}

func TestAssignOmissions_ZeroRate(t *testing.T) {
	trials := makeTrials("aaaaaaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaaaaaa")
	chosen := AssignOmissions(newRand(1), trials, EventBand{}, false)
	assert.Empty(t, chosen)
	for _, tr := range trials {
		assert.Equal(t, 1, tr.OutcomeOccurred)
	}
}

func TestTopUp(t *testing.T) {
	pool := []int{5, 6, 7}

	assert.Equal(t, []int{6}, topUp(pool, []int{6}, 2, true))
	assert.Equal(t, []int{6, 5}, topUp(pool, []int{6}, 2, false))
	assert.Equal(t, []int{5, 7}, topUp(pool, []int{5}, 3, true))
}

func TestSelectSpaced(t *testing.T) {
	rng := newRand(9)
	assert.Empty(t, selectSpaced(rng, []int{4, 5, 6}, 0))

	for i := 0; i < 200; i++ {
		got := selectSpaced(rng, []int{4, 5, 6, 7, 8, 9, 10}, 3)
		assert.LessOrEqual(t, len(got), 3)
		assertNotAdjacent(t, got)
	}
}

func TestAssignOddballs(t *testing.T) {
	for seed := int64(1); seed <= 100; seed++ {
		rng := newRand(seed)
		trials := makeTrials("aaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb")

		omissions := AssignOmissions(rng, trials, EventBand{MinRate: 0.05, MaxRate: 0.15}, false)
		oddballs := AssignOddballs(rng, trials, EventBand{MinRate: 0.08, MaxRate: 0.12}, 120, 0)

		assertNotAdjacent(t, oddballs)
		omitted := map[int]bool{}
		for _, i := range omissions {
			omitted[i] = true
		}
		for _, i := range oddballs {
			tr := trials[i]
			require.True(t, tr.Oddball)
			assert.False(t, omitted[i-1] || omitted[i] || omitted[i+1], "seed %d: oddball %d touches an omission", seed, i)
			assert.Equal(t, 220.0, tr.ActualAngle)
			assert.Zero(t, tr.AngleNoise)
			assert.Equal(t, 100.0, tr.TargetAngle)
			assert.Equal(t, tr.ActualAngle, tr.ResponseTarget(120))
		}
	}
}

func assertNotAdjacent(t *testing.T, positions []int) {
	t.Helper()
	seen := map[int]bool{}
	for _, p := range positions {
		assert.False(t, seen[p-1] || seen[p+1], "positions %v contain neighbours", positions)
		seen[p] = true
	}
}
