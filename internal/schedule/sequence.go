package schedule

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	sequenceAttempts = 1000

	// splitWidth is the number of candidate sizes for the identity-1 count,
	// starting splitBelow under half the sequence length.
	splitWidth = 5
	splitBelow = 2
)

// SequenceRequest describes one episode's cue sequence.
type SequenceRequest struct {
	Length int

	// RequiredStart, when set, is the color the sequence must open with.
	RequiredStart string

	// LearningLength forces the first LearningLength entries to
	// RequiredStart. It is only meaningful with RequiredStart set.
	LearningLength int

	MaxStreak int
}

// SynthesizeCueSequence builds a sequence of req.Length palette colors.
//
// Each attempt picks a split n1/n2 near half the length, lays down the
// learning prefix, then fills positions one by one choosing uniformly among
// colors that still have quota and would not extend a full-length run. An
// attempt that runs out of eligible colors, misses the split, or opens with
// the wrong color is discarded.
func SynthesizeCueSequence(rng *rand.Rand, palette Palette, req SequenceRequest) ([]string, error) {
	return synthesizeCueSequence(rng, palette, req, nil)
}

func synthesizeCueSequence(rng *rand.Rand, palette Palette, req SequenceRequest, tr *tracer) ([]string, error) {
	if req.LearningLength > 0 && req.RequiredStart == "" {
		return nil, fmt.Errorf("%w: learning phase of %d trials has no starting color", ErrCueSequence, req.LearningLength)
	}
	if req.RequiredStart != "" && palette.Identity(req.RequiredStart) == 0 {
		return nil, fmt.Errorf("%w: starting color %q is not in the palette", ErrCueSequence, req.RequiredStart)
	}

	prefix := min(req.LearningLength, req.Length)
	if prefix > req.MaxStreak {
		// Every attempt would start with an over-long run.
		return nil, newGenerationError(ErrCueSequence, 0,
			fmt.Errorf("learning phase of %d trials exceeds max streak %d", prefix, req.MaxStreak))
	}

	var reason error
	for attempt := 1; attempt <= sequenceAttempts; attempt++ {
		seq, err := sequenceAttempt(rng, palette, req, prefix)
		if err == nil {
			return seq, nil
		}
		reason = err
		tr.rejected("sequence", attempt, err)
	}
	return nil, newGenerationError(ErrCueSequence, sequenceAttempts, reason)
}

var (
	errSequenceStuck = errors.New("no eligible color left")
	errSequenceSplit = errors.New("color split missed")
	errSequenceStart = errors.New("wrong starting color")
	errSequenceRun   = errors.New("color run exceeds max streak")
)

func sequenceAttempt(rng *rand.Rand, palette Palette, req SequenceRequest, prefix int) ([]string, error) {
	n := req.Length
	n1 := rng.Intn(splitWidth) + max(1, n/2-splitBelow)
	want := [2]int{n1, n - n1}

	seq := make([]string, 0, n)
	quota := want
	for i := 0; i < prefix; i++ {
		seq = append(seq, req.RequiredStart)
		quota[palette.Identity(req.RequiredStart)-1]--
	}

	for len(seq) < n {
		available := make([]int, 0, 2)
		for c := range palette.Colors {
			if quota[c] > 0 {
				available = append(available, c)
			}
		}
		if len(seq) >= req.MaxStreak && trailingRun(seq) >= req.MaxStreak {
			last := palette.Identity(seq[len(seq)-1]) - 1
			available = removeInt(available, last)
		}
		if len(available) == 0 {
			return nil, errSequenceStuck
		}
		c := available[rng.Intn(len(available))]
		seq = append(seq, palette.Colors[c])
		quota[c]--
	}

	if countColor(seq, palette.Colors[0]) != want[0] || countColor(seq, palette.Colors[1]) != want[1] {
		return nil, errSequenceSplit
	}
	if req.RequiredStart != "" && seq[0] != req.RequiredStart {
		return nil, errSequenceStart
	}
	if LongestRun(seq) > req.MaxStreak {
		return nil, errSequenceRun
	}
	return seq, nil
}

// trailingRun returns the length of the run ending at the last element.
func trailingRun(seq []string) int {
	if len(seq) == 0 {
		return 0
	}
	last := seq[len(seq)-1]
	n := 0
	for i := len(seq) - 1; i >= 0 && seq[i] == last; i-- {
		n++
	}
	return n
}

// LongestRun returns the longest run of equal adjacent entries in seq.
func LongestRun(seq []string) int {
	best, cur := 0, 0
	for i := range seq {
		if i > 0 && seq[i] == seq[i-1] {
			cur++
		} else {
			cur = 1
		}
		best = max(best, cur)
	}
	return best
}

func countColor(seq []string, color string) int {
	n := 0
	for _, c := range seq {
		if c == color {
			n++
		}
	}
	return n
}

func removeInt(xs []int, v int) []int {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
