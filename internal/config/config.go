// Package config provides unified configuration loading for cuesched.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/cuesched/internal/schedule"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config, database and backups.
const DirName = ".cuesched"

// CueschedConfig contains all cuesched configuration settings.
type CueschedConfig struct {
	// Generation holds the engine parameters used when a command or tool
	// does not override them.
	Generation schedule.Params `json:"generation" yaml:"generation"`

	// Seed fixes the random seed for every generation when non-zero.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Logging contains settings for operational and attempt logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Archive contains settings for schedule backups.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// LoggingConfig configures cuesched's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables attempt logging to ~/.cuesched/attempts.jsonl.
	// "trace" additionally logs every rejected attempt to stderr.
	Level string `json:"level" yaml:"level"`
}

// ArchiveConfig configures backup archives.
type ArchiveConfig struct {
	// Compression gzips the archive payload.
	Compression bool `json:"compression" yaml:"compression"`

	// Dir overrides the default backup directory (~/.cuesched/backups).
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a CueschedConfig with sensible defaults.
func Default() *CueschedConfig {
	return &CueschedConfig{
		Generation: schedule.DefaultParams(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Archive: ArchiveConfig{
			Compression: true,
		},
	}
}

// HomeDir returns ~/.cuesched.
func HomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// DefaultPath returns ~/.cuesched/config.yaml.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.cuesched/config.yaml -> environment variables
func Load() (*CueschedConfig, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields the
// file leaves out keep their defaults.
func LoadFromFile(path string) (*CueschedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Archive.Dir = expandEnvVars(config.Archive.Dir)

	return config, nil
}

// Save writes the configuration to path, creating the parent directory.
func (c *CueschedConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *CueschedConfig) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *CueschedConfig) {
	g := &config.Generation

	envInt("CUESCHED_EPISODES", &g.Episodes)
	envInt("CUESCHED_MIN_EPISODE_LENGTH", &g.MinEpisodeLength)
	envInt("CUESCHED_MAX_EPISODE_LENGTH", &g.MaxEpisodeLength)
	envInt("CUESCHED_MAX_SAME_COLOR_STREAK", &g.MaxSameColorStreak)
	envFloat("CUESCHED_RULE_SHIFT", &g.RuleShift)
	envFloat("CUESCHED_ANGLE_NOISE", &g.AngleNoise)
	envFloat("CUESCHED_ODDBALL_ANGLE_SHIFT", &g.OddballAngleShift)

	if v := os.Getenv("CUESCHED_REFERENCE_TOP_UP"); v != "" {
		g.ReferenceTopUp = v == "true" || v == "1"
	}

	if v := os.Getenv("CUESCHED_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Seed = n
		}
	}

	if v := os.Getenv("CUESCHED_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("CUESCHED_ARCHIVE_DIR"); v != "" {
		config.Archive.Dir = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
