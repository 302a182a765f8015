// Package schedule synthesizes randomized trial schedules for cue/angle
// reversal-learning experiments.
//
// A schedule is a run of episodes. Each episode has a planned length and an
// ordered sequence of two cue colors; the cue identity of a trial (1 or 2)
// selects the response rule, and the episode's base angle moves on the circle
// between episodes. Some trials are marked as omitted outcomes and some as
// oddballs whose response angle follows a shifted rule.
//
// Synthesis is bounded rejection sampling. Every stage that samples until its
// constraints hold has a fixed attempt budget and fails with a
// *GenerationError naming the stage when the budget is spent:
//
//	gen, err := schedule.New(schedule.DefaultParams(), schedule.WithSeed(42))
//	if err != nil {
//	    return err // *ConfigurationError(s)
//	}
//	res, err := gen.Generate()
//	if errors.Is(err, schedule.ErrPlanEpisodes) {
//	    // retry with a looser configuration
//	}
//
// All randomness flows through one *rand.Rand owned by the Generator, so a
// fixed seed reproduces a schedule exactly.
package schedule
