package schedule

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/nvandessel/cuesched/internal/logging"
)

// Option customizes a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic: the same Params and seed
// always produce the same Result.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.rng = newRand(seed)
	}
}

// WithRand supplies the random source directly. The Result's Seed is left
// at zero because the source's seed is unknown.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.seed = 0
		g.rng = r
	}
}

// WithLogger sets the operational logger. Rejected attempts are logged at
// logging.LevelTrace.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithAttemptLogger records every rejected and accepted attempt.
func WithAttemptLogger(al *logging.AttemptLogger) Option {
	return func(g *Generator) {
		g.attempts = al
	}
}

// Generator produces schedules for one Params value. Each Generate call
// advances the generator's random stream; a Generator is not safe for
// concurrent use.
type Generator struct {
	params   Params
	rng      *rand.Rand
	seed     int64
	logger   *slog.Logger
	attempts *logging.AttemptLogger
}

// New validates p and returns a Generator. Without WithSeed or WithRand the
// seed is taken from the clock and reported in each Result.
func New(p Params, opts ...Option) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{params: p, logger: logging.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.seed = clockSeed()
		g.rng = newRand(g.seed)
	}
	return g, nil
}

// Generate validates p and produces one schedule with a fresh Generator.
func Generate(p Params, opts ...Option) (*Result, error) {
	g, err := New(p, opts...)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}

// Params returns the generator's parameters.
func (g *Generator) Params() Params {
	return g.params
}

// Generate runs the full pipeline: palette, identities, lengths, episode
// plan, angles, omissions, oddballs. It either returns a complete Result or
// a *GenerationError naming the exhausted stage.
func (g *Generator) Generate() (*Result, error) {
	p := g.params
	rng := g.rng
	tr := &tracer{logger: g.logger, attempts: g.attempts}

	palette := choosePalette(rng)

	ids, err := sampleIdentities(rng, tr)
	if err != nil {
		return nil, err
	}

	lengths, err := sampleEpisodeLengths(rng, p.Episodes, LengthBounds{
		Min:     p.MinEpisodeLength,
		Max:     p.MaxEpisodeLength,
		MeanMin: p.TargetMeanMin,
		MeanMax: p.TargetMeanMax,
	}, tr)
	if err != nil {
		return nil, err
	}

	plan, err := planEpisodes(rng, palette, p, lengths, ids, tr)
	if err != nil {
		return nil, err
	}
	tr.accepted("plan", plan.Attempts, map[string]any{"episodes": p.Episodes})

	trials := buildTrials(rng, p, palette, plan.Episodes)

	omissions := AssignOmissions(rng, trials, EventBand{MinRate: p.MinOmissionRate, MaxRate: p.MaxOmissionRate}, p.ReferenceTopUp)
	oddballs := AssignOddballs(rng, trials, EventBand{MinRate: p.MinOddballRate, MaxRate: p.MaxOddballRate}, p.OddballAngleShift, p.AngleNoise)

	g.logger.Info("schedule generated",
		"seed", g.seed,
		"palette", palette.Labels[0]+"/"+palette.Labels[1],
		"episodes", p.Episodes,
		"trials", len(trials),
		"plan_attempts", plan.Attempts,
		"omissions", len(omissions),
		"oddballs", len(oddballs),
	)

	return &Result{
		Trials:         trials,
		Palette:        palette,
		EpisodeLengths: lengths,
		Identities:     plan.Identities,
		Episodes:       plan.Episodes,
		Seed:           g.seed,
		PlanAttempts:   plan.Attempts,
	}, nil
}

// buildTrials flattens the plan into trials with target and noisy actual
// angles. Every trial in an episode shares the episode's base angle.
func buildTrials(rng *rand.Rand, p Params, palette Palette, episodes []Episode) []Trial {
	startIDs := make([]int, len(episodes))
	total := 0
	for i, ep := range episodes {
		startIDs[i] = ep.StartIdentity(palette)
		total += ep.Length
	}

	initial := float64(uniformInt(rng, 1, 360))
	bases := EpisodeStartAngles(initial, startIDs, p.EpisodeAngleShiftCue1, p.EpisodeAngleShiftCue2)

	trials := make([]Trial, 0, total)
	for i, ep := range episodes {
		for pos, color := range ep.Sequence {
			identity := palette.Identity(color)
			target := storedAngle(TargetAngle(bases[i], identity, p.RuleShift))
			actual, noise := noisyResponse(rng, target, p.AngleNoise)
			trials = append(trials, Trial{
				Episode:         ep.Index,
				EpisodeLength:   ep.Length,
				TrialInEpisode:  pos + 1,
				CueColor:        color,
				CueIdentity:     identity,
				TargetAngle:     target,
				ActualAngle:     actual,
				AngleNoise:      noise,
				TrialIndex:      len(trials) + 1,
				OutcomeOccurred: 1,
			})
		}
	}
	return trials
}

// tracer fans attempt events out to the logger and the attempt log.
type tracer struct {
	logger   *slog.Logger
	attempts *logging.AttemptLogger
}

func (tr *tracer) rejected(stage string, attempt int, reason error) {
	if tr == nil {
		return
	}
	tr.logger.Log(context.Background(), logging.LevelTrace, "attempt rejected",
		"stage", stage, "attempt", attempt, "reason", reason)
	tr.attempts.Rejected(stage, attempt, reason)
}

func (tr *tracer) accepted(stage string, attempts int, extra map[string]any) {
	if tr == nil {
		return
	}
	tr.logger.Debug("attempt accepted", "stage", stage, "attempts", attempts)
	tr.attempts.Accepted(stage, attempts, extra)
}
