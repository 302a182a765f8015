package schedule

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	planAttempts = 1000

	// Learning episodes are 2..5; their starting identities come from the
	// identity sampler.
	firstLearningEpisode = 2
	lastLearningEpisode  = firstLearningEpisode + learningWindow - 1
)

var errStartImbalance = errors.New("starting identities not balanced")

// Plan is an accepted multi-episode cue plan.
type Plan struct {
	Episodes   []Episode
	Identities []int // identity sampler output the plan was built against
	Attempts   int
}

// StartIdentities returns the starting identities of episodes 2..N.
func (pl *Plan) StartIdentities(palette Palette) []int {
	if len(pl.Episodes) < 2 {
		return nil
	}
	ids := make([]int, 0, len(pl.Episodes)-1)
	for _, ep := range pl.Episodes[1:] {
		ids = append(ids, ep.StartIdentity(palette))
	}
	return ids
}

// PlanEpisodes synthesizes one cue sequence per episode, carrying each
// episode's last color into the next episode's required start.
//
// Learning episodes take their required start from ids, the identity
// sampler's output (sampled here when nil); a clash with the carried color
// abandons the attempt. Accepted plans have balanced starting identities over
// episodes 2..5 and 2..9. Every abandoned attempt draws a fresh identity
// assignment before the next one.
func PlanEpisodes(rng *rand.Rand, palette Palette, p Params, lengths, ids []int) (*Plan, error) {
	return planEpisodes(rng, palette, p, lengths, ids, nil)
}

func planEpisodes(rng *rand.Rand, palette Palette, p Params, lengths, ids []int, tr *tracer) (*Plan, error) {
	if len(lengths) != p.Episodes {
		return nil, fmt.Errorf("have %d episode lengths for %d episodes", len(lengths), p.Episodes)
	}

	var err error
	if ids == nil {
		if ids, err = sampleIdentities(rng, tr); err != nil {
			return nil, err
		}
	}
	if len(ids) < learningWindow {
		return nil, fmt.Errorf("need %d identities, got %d", learningWindow, len(ids))
	}

	var reason error
	for attempt := 1; attempt <= planAttempts; attempt++ {
		episodes, attemptErr := planAttempt(rng, palette, p, lengths, ids, tr)
		if attemptErr == nil {
			return &Plan{Episodes: episodes, Identities: ids, Attempts: attempt}, nil
		}
		reason = attemptErr
		tr.rejected("plan", attempt, attemptErr)

		ids, err = sampleIdentities(rng, tr)
		if err != nil {
			return nil, err
		}
	}
	return nil, newGenerationError(ErrPlanEpisodes, planAttempts, reason)
}

func planAttempt(rng *rand.Rand, palette Palette, p Params, lengths []int, ids []int, tr *tracer) ([]Episode, error) {
	episodes := make([]Episode, 0, p.Episodes)
	starts := make([]int, 0, p.Episodes)
	prevLast := ""

	for e := 1; e <= p.Episodes; e++ {
		required := prevLast
		learning := 0

		if e >= firstLearningEpisode && e <= lastLearningEpisode {
			want := palette.Colors[ids[e-firstLearningEpisode]-1]
			if required != "" && required != want {
				return nil, fmt.Errorf("episode %d: carried start %s conflicts with learning start %s",
					e, palette.Label(required), palette.Label(want))
			}
			required = want
			learning = uniformInt(rng, p.MinLearningPhaseTrials, p.MaxLearningPhaseTrials)
		}

		seq, err := synthesizeCueSequence(rng, palette, SequenceRequest{
			Length:         lengths[e-1],
			RequiredStart:  required,
			LearningLength: learning,
			MaxStreak:      p.MaxSameColorStreak,
		}, tr)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", e, err)
		}

		episodes = append(episodes, Episode{
			Index:          e,
			Length:         lengths[e-1],
			Sequence:       seq,
			RequiredStart:  required,
			LearningLength: learning,
		})
		prevLast = seq[len(seq)-1]
		if e >= 2 {
			starts = append(starts, palette.Identity(seq[0]))
		}
	}

	if !balanced(starts[:min(learningWindow, len(starts))]) {
		return nil, fmt.Errorf("%w over learning episodes: %v", errStartImbalance, starts)
	}
	if !balanced(starts[:min(identityCount, len(starts))]) {
		return nil, fmt.Errorf("%w over first %d episodes: %v", errStartImbalance, identityCount, starts)
	}
	return episodes, nil
}
