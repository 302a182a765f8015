package schedule

// Trial is one row of a generated schedule. Trials are read-only once
// Generate returns.
type Trial struct {
	Episode         int     `json:"episode"`
	EpisodeLength   int     `json:"episode_length"`
	TrialInEpisode  int     `json:"trial_in_episode"` // 1-based
	CueColor        string  `json:"cue_color"`
	CueIdentity     int     `json:"cue_identity"`
	TargetAngle     float64 `json:"target_vector_angle"`
	ActualAngle     float64 `json:"actual_vector_angle"`
	AngleNoise      float64 `json:"angle_noise"`
	TrialIndex      int     `json:"trial_index"` // 1-based, global
	Oddball         bool    `json:"is_oddball"`
	OutcomeOccurred int     `json:"outcome_occurred"` // 1 delivered, 0 omitted
}

// ResponseTarget returns the angle the trial's noise is measured from: the
// rule target, or the oddball-shifted target for oddball trials.
func (t Trial) ResponseTarget(oddballShift float64) float64 {
	if !t.Oddball {
		return t.TargetAngle
	}
	return storedAngle(t.TargetAngle + oddballShift)
}

// Omitted reports whether the trial's outcome was withheld.
func (t Trial) Omitted() bool {
	return t.OutcomeOccurred == 0
}

// Episode is the plan of one episode.
type Episode struct {
	Index          int      `json:"index"` // 1-based
	Length         int      `json:"length"`
	Sequence       []string `json:"sequence"`
	RequiredStart  string   `json:"required_start,omitempty"`
	LearningLength int      `json:"learning_length"`
}

// StartIdentity returns the identity of the episode's first cue.
func (e Episode) StartIdentity(p Palette) int {
	if len(e.Sequence) == 0 {
		return 0
	}
	return p.Identity(e.Sequence[0])
}

// Result is a complete generated schedule.
type Result struct {
	Trials         []Trial   `json:"trials"`
	Palette        Palette   `json:"palette"`
	EpisodeLengths []int     `json:"episode_lengths"`
	Identities     []int     `json:"identities"`
	Episodes       []Episode `json:"episodes"`
	Seed           int64     `json:"seed"`
	PlanAttempts   int       `json:"plan_attempts"`
}

// EpisodeTrials returns the trials of episode index (1-based).
func (r *Result) EpisodeTrials(index int) []Trial {
	var out []Trial
	for _, t := range r.Trials {
		if t.Episode == index {
			out = append(out, t)
		}
	}
	return out
}
