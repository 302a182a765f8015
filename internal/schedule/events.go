package schedule

import (
	"math/rand"
)

// leadingExcluded trials at the start of every episode never carry events.
const leadingExcluded = 4

// EventBand is the per-episode rate range of one event type.
type EventBand struct {
	MinRate, MaxRate float64
}

// Target draws a rate from the band and converts it to an event count for
// an episode of length trials.
//
// The count is clamped to [round(length*MinRate), round(length*MaxRate)];
// the lower bound is at least 1 whenever MinRate is positive and wins if
// the two bounds cross.
func (b EventBand) Target(rng *rand.Rand, length int) int {
	rate := uniformFloat(rng, b.MinRate, b.MaxRate)
	target := roundHalfUp(float64(length) * rate)

	lower := roundHalfUp(float64(length) * b.MinRate)
	if b.MinRate > 0 && lower < 1 {
		lower = 1
	}
	upper := roundHalfUp(float64(length) * b.MaxRate)
	return max(lower, min(upper, target))
}

// span is a half-open range of global trial positions.
type span struct{ start, end int }

func episodeSpans(trials []Trial) []span {
	var spans []span
	for i, t := range trials {
		if i == 0 || t.Episode != trials[i-1].Episode {
			spans = append(spans, span{start: i})
		}
		spans[len(spans)-1].end = i + 1
	}
	return spans
}

// baseEligible excludes the leading trials, the final trial and cue
// switches.
func baseEligible(trials []Trial, i int) bool {
	t := trials[i]
	if t.TrialInEpisode <= leadingExcluded || t.TrialInEpisode == t.EpisodeLength {
		return false
	}
	if i > 0 && t.CueColor != trials[i-1].CueColor {
		return false
	}
	return true
}

func omittedAt(trials []Trial, i int) bool {
	return i >= 0 && i < len(trials) && trials[i].Omitted()
}

// AssignOmissions marks outcome omissions episode by episode and returns the
// global positions chosen. When referenceTopUp is set, a short spaced
// selection is topped up from the pool without the adjacency check.
func AssignOmissions(rng *rand.Rand, trials []Trial, band EventBand, referenceTopUp bool) []int {
	var chosen []int
	for _, sp := range episodeSpans(trials) {
		target := band.Target(rng, sp.end-sp.start)

		var pool []int
		for i := sp.start; i < sp.end; i++ {
			if baseEligible(trials, i) {
				pool = append(pool, i)
			}
		}
		target = min(target, len(pool))

		selected := selectSpaced(rng, pool, target)
		if len(selected) < target {
			selected = topUp(pool, selected, target, !referenceTopUp)
		}
		for _, i := range selected {
			trials[i].OutcomeOccurred = 0
		}
		chosen = append(chosen, selected...)
	}
	return chosen
}

// AssignOddballs marks oddball trials episode by episode, away from
// omissions, and redraws their actual angle around the oddball-shifted
// target. It returns the global positions chosen.
func AssignOddballs(rng *rand.Rand, trials []Trial, band EventBand, shift, noise float64) []int {
	var chosen []int
	for _, sp := range episodeSpans(trials) {
		target := band.Target(rng, sp.end-sp.start)

		var pool []int
		for i := sp.start; i < sp.end; i++ {
			if !baseEligible(trials, i) || omittedAt(trials, i) || omittedAt(trials, i-1) || omittedAt(trials, i+1) {
				continue
			}
			pool = append(pool, i)
		}
		target = min(target, len(pool))

		for _, i := range selectSpaced(rng, pool, target) {
			t := &trials[i]
			t.Oddball = true
			oddTarget := storedAngle(t.TargetAngle + shift)
			t.ActualAngle, t.AngleNoise = noisyResponse(rng, oddTarget, noise)
			chosen = append(chosen, i)
		}
	}
	return chosen
}

// selectSpaced shuffles pool and greedily keeps candidates more than one
// position away from everything already kept, up to target.
func selectSpaced(rng *rand.Rand, pool []int, target int) []int {
	shuffled := append([]int(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	selected := make([]int, 0, target)
	for _, c := range shuffled {
		if len(selected) >= target {
			break
		}
		if spaced(c, selected) {
			selected = append(selected, c)
		}
	}
	return selected
}

// topUp appends unselected pool members in pool order until target is met.
func topUp(pool, selected []int, target int, enforceSpacing bool) []int {
	taken := make(map[int]bool, len(selected))
	for _, s := range selected {
		taken[s] = true
	}
	for _, c := range pool {
		if len(selected) >= target {
			break
		}
		if taken[c] || (enforceSpacing && !spaced(c, selected)) {
			continue
		}
		selected = append(selected, c)
		taken[c] = true
	}
	return selected
}

func spaced(c int, selected []int) bool {
	for _, s := range selected {
		if c-s <= 1 && s-c <= 1 {
			return false
		}
	}
	return true
}
