package config

import (
	"fmt"
	"strconv"
)

// setting binds a dotted key to one configuration field.
type setting struct {
	key string
	get func(*CueschedConfig) any
	set func(*CueschedConfig, string) error
}

func intSetting(key string, field func(*CueschedConfig) *int) setting {
	return setting{
		key: key,
		get: func(c *CueschedConfig) any { return *field(c) },
		set: func(c *CueschedConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer for %s: %s", key, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatSetting(key string, field func(*CueschedConfig) *float64) setting {
	return setting{
		key: key,
		get: func(c *CueschedConfig) any { return *field(c) },
		set: func(c *CueschedConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number for %s: %s", key, v)
			}
			*field(c) = f
			return nil
		},
	}
}

func boolSetting(key string, field func(*CueschedConfig) *bool) setting {
	return setting{
		key: key,
		get: func(c *CueschedConfig) any { return *field(c) },
		set: func(c *CueschedConfig, v string) error {
			*field(c) = v == "true" || v == "1"
			return nil
		},
	}
}

var settings = []setting{
	intSetting("generation.episodes", func(c *CueschedConfig) *int { return &c.Generation.Episodes }),
	floatSetting("generation.episode_angle_shift_cue1", func(c *CueschedConfig) *float64 { return &c.Generation.EpisodeAngleShiftCue1 }),
	floatSetting("generation.episode_angle_shift_cue2", func(c *CueschedConfig) *float64 { return &c.Generation.EpisodeAngleShiftCue2 }),
	floatSetting("generation.rule_shift", func(c *CueschedConfig) *float64 { return &c.Generation.RuleShift }),
	floatSetting("generation.angle_noise", func(c *CueschedConfig) *float64 { return &c.Generation.AngleNoise }),
	intSetting("generation.min_episode_length", func(c *CueschedConfig) *int { return &c.Generation.MinEpisodeLength }),
	intSetting("generation.max_episode_length", func(c *CueschedConfig) *int { return &c.Generation.MaxEpisodeLength }),
	floatSetting("generation.target_mean_min", func(c *CueschedConfig) *float64 { return &c.Generation.TargetMeanMin }),
	floatSetting("generation.target_mean_max", func(c *CueschedConfig) *float64 { return &c.Generation.TargetMeanMax }),
	intSetting("generation.max_same_color_streak", func(c *CueschedConfig) *int { return &c.Generation.MaxSameColorStreak }),
	intSetting("generation.min_learning_phase_trials", func(c *CueschedConfig) *int { return &c.Generation.MinLearningPhaseTrials }),
	intSetting("generation.max_learning_phase_trials", func(c *CueschedConfig) *int { return &c.Generation.MaxLearningPhaseTrials }),
	floatSetting("generation.min_omission_rate", func(c *CueschedConfig) *float64 { return &c.Generation.MinOmissionRate }),
	floatSetting("generation.max_omission_rate", func(c *CueschedConfig) *float64 { return &c.Generation.MaxOmissionRate }),
	floatSetting("generation.min_oddball_rate", func(c *CueschedConfig) *float64 { return &c.Generation.MinOddballRate }),
	floatSetting("generation.max_oddball_rate", func(c *CueschedConfig) *float64 { return &c.Generation.MaxOddballRate }),
	floatSetting("generation.oddball_angle_shift", func(c *CueschedConfig) *float64 { return &c.Generation.OddballAngleShift }),
	boolSetting("generation.reference_top_up", func(c *CueschedConfig) *bool { return &c.Generation.ReferenceTopUp }),
	{
		key: "seed",
		get: func(c *CueschedConfig) any { return c.Seed },
		set: func(c *CueschedConfig, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed: %s", v)
			}
			c.Seed = n
			return nil
		},
	},
	{
		key: "logging.level",
		get: func(c *CueschedConfig) any { return c.Logging.Level },
		set: func(c *CueschedConfig, v string) error {
			c.Logging.Level = v
			return nil
		},
	},
	boolSetting("archive.compression", func(c *CueschedConfig) *bool { return &c.Archive.Compression }),
	{
		key: "archive.dir",
		get: func(c *CueschedConfig) any { return c.Archive.Dir },
		set: func(c *CueschedConfig, v string) error {
			c.Archive.Dir = v
			return nil
		},
	},
}

// Keys returns every dotted configuration key in display order.
func Keys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// Get returns the value stored under a dotted key.
func (c *CueschedConfig) Get(key string) (any, bool) {
	for _, s := range settings {
		if s.key == key {
			return s.get(c), true
		}
	}
	return nil, false
}

// Set parses value into the field named by a dotted key and re-validates
// the configuration. On error the configuration is left unchanged.
func (c *CueschedConfig) Set(key, value string) error {
	for _, s := range settings {
		if s.key != key {
			continue
		}
		next := *c
		if err := s.set(&next, value); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		*c = next
		return nil
	}
	return fmt.Errorf("unknown configuration key: %s", key)
}
