package schedule

import (
	"errors"
	"fmt"
)

// Params is the immutable input of one generation run. Rates are fractions
// in [0,1] and angles are degrees.
type Params struct {
	// Episodes is the number of episodes in the run.
	Episodes int `json:"episodes" yaml:"episodes"`

	// EpisodeAngleShiftCue1 and EpisodeAngleShiftCue2 move the base angle
	// when an episode starts with identity 1 or 2 respectively.
	EpisodeAngleShiftCue1 float64 `json:"episode_angle_shift_cue1" yaml:"episode_angle_shift_cue1"`
	EpisodeAngleShiftCue2 float64 `json:"episode_angle_shift_cue2" yaml:"episode_angle_shift_cue2"`

	// RuleShift is the offset of the identity-2 response rule.
	RuleShift float64 `json:"rule_shift" yaml:"rule_shift"`

	// AngleNoise is the half-width of the uniform response noise.
	AngleNoise float64 `json:"angle_noise" yaml:"angle_noise"`

	MinEpisodeLength int     `json:"min_episode_length" yaml:"min_episode_length"`
	MaxEpisodeLength int     `json:"max_episode_length" yaml:"max_episode_length"`
	TargetMeanMin    float64 `json:"target_mean_min" yaml:"target_mean_min"`
	TargetMeanMax    float64 `json:"target_mean_max" yaml:"target_mean_max"`

	// MaxSameColorStreak bounds the run length of one cue color.
	MaxSameColorStreak int `json:"max_same_color_streak" yaml:"max_same_color_streak"`

	MinLearningPhaseTrials int `json:"min_learning_phase_trials" yaml:"min_learning_phase_trials"`
	MaxLearningPhaseTrials int `json:"max_learning_phase_trials" yaml:"max_learning_phase_trials"`

	MinOmissionRate float64 `json:"min_omission_rate" yaml:"min_omission_rate"`
	MaxOmissionRate float64 `json:"max_omission_rate" yaml:"max_omission_rate"`
	MinOddballRate  float64 `json:"min_oddball_rate" yaml:"min_oddball_rate"`
	MaxOddballRate  float64 `json:"max_oddball_rate" yaml:"max_oddball_rate"`

	// OddballAngleShift offsets the response target of oddball trials.
	OddballAngleShift float64 `json:"oddball_angle_shift" yaml:"oddball_angle_shift"`

	// ReferenceTopUp tops up omissions without the adjacency check when the
	// spaced selection falls short. Off by default.
	ReferenceTopUp bool `json:"reference_top_up" yaml:"reference_top_up"`
}

// Upper bounds on schedule size. Every episode length vector and trial
// slice is allocated up front, so these cap one run's memory.
const (
	EpisodesLimit      = 1000
	EpisodeLengthLimit = 10000
)

// DefaultParams returns the parameter set of the standard nine-episode task.
func DefaultParams() Params {
	return Params{
		Episodes:               9,
		EpisodeAngleShiftCue1:  120,
		EpisodeAngleShiftCue2:  120,
		RuleShift:              70,
		AngleNoise:             10,
		MinEpisodeLength:       16,
		MaxEpisodeLength:       24,
		TargetMeanMin:          19,
		TargetMeanMax:          21,
		MaxSameColorStreak:     4,
		MinLearningPhaseTrials: 3,
		MaxLearningPhaseTrials: 4,
		MinOmissionRate:        0.05,
		MaxOmissionRate:        0.15,
		MinOddballRate:         0.08,
		MaxOddballRate:         0.12,
		OddballAngleShift:      120,
	}
}

// Validate checks that p can describe a schedule at all. Every violation is
// reported as a *ConfigurationError; multiple violations are joined.
func (p Params) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if p.Episodes < 1 || p.Episodes > EpisodesLimit {
		bad("episodes", "must be between 1 and %d, got %d", EpisodesLimit, p.Episodes)
	}
	if p.MinEpisodeLength < 1 {
		bad("min_episode_length", "must be at least 1, got %d", p.MinEpisodeLength)
	}
	if p.MaxEpisodeLength > EpisodeLengthLimit {
		bad("max_episode_length", "must be at most %d, got %d", EpisodeLengthLimit, p.MaxEpisodeLength)
	}
	if p.MinEpisodeLength > p.MaxEpisodeLength {
		bad("max_episode_length", "must be >= min_episode_length (%d), got %d", p.MinEpisodeLength, p.MaxEpisodeLength)
	}
	if p.TargetMeanMin > p.TargetMeanMax {
		bad("target_mean_max", "must be >= target_mean_min (%g), got %g", p.TargetMeanMin, p.TargetMeanMax)
	}
	if p.TargetMeanMax < float64(p.MinEpisodeLength) || p.TargetMeanMin > float64(p.MaxEpisodeLength) {
		bad("target_mean_min", "band [%g, %g] does not overlap episode lengths [%d, %d]",
			p.TargetMeanMin, p.TargetMeanMax, p.MinEpisodeLength, p.MaxEpisodeLength)
	}
	if p.MaxSameColorStreak < 1 {
		bad("max_same_color_streak", "must be at least 1, got %d", p.MaxSameColorStreak)
	}
	if p.MinLearningPhaseTrials < 0 {
		bad("min_learning_phase_trials", "must be non-negative, got %d", p.MinLearningPhaseTrials)
	}
	if p.MinLearningPhaseTrials > p.MaxLearningPhaseTrials {
		bad("max_learning_phase_trials", "must be >= min_learning_phase_trials (%d), got %d",
			p.MinLearningPhaseTrials, p.MaxLearningPhaseTrials)
	}
	// A drawn learning phase longer than the streak limit fails its attempt.
	if p.Episodes >= 2 && p.MaxSameColorStreak >= 1 {
		switch {
		case p.MinLearningPhaseTrials > p.MaxSameColorStreak:
			bad("min_learning_phase_trials", "learning phase of %d trials exceeds max_same_color_streak %d",
				p.MinLearningPhaseTrials, p.MaxSameColorStreak)
		case p.MaxLearningPhaseTrials > p.MaxSameColorStreak:
			bad("max_learning_phase_trials", "learning phase of %d trials exceeds max_same_color_streak %d",
				p.MaxLearningPhaseTrials, p.MaxSameColorStreak)
		}
	}
	if p.AngleNoise < 0 || p.AngleNoise > 180 {
		bad("angle_noise", "must be between 0 and 180, got %g", p.AngleNoise)
	}

	rate := func(minField, maxField string, lo, hi float64) {
		if lo < 0 || lo > 1 {
			bad(minField, "must be between 0 and 1, got %g", lo)
		}
		if hi < 0 || hi > 1 {
			bad(maxField, "must be between 0 and 1, got %g", hi)
		}
		if lo > hi {
			bad(maxField, "must be >= %s (%g), got %g", minField, lo, hi)
		}
	}
	rate("min_omission_rate", "max_omission_rate", p.MinOmissionRate, p.MaxOmissionRate)
	rate("min_oddball_rate", "max_oddball_rate", p.MinOddballRate, p.MaxOddballRate)

	return errors.Join(errs...)
}
