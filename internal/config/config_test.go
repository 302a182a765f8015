package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/cuesched/internal/schedule"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Generation != schedule.DefaultParams() {
		t.Errorf("expected default generation params, got %+v", config.Generation)
	}
	if config.Generation.Episodes != 9 {
		t.Errorf("expected 9 episodes, got %d", config.Generation.Episodes)
	}
	if config.Seed != 0 {
		t.Errorf("expected no fixed seed, got %d", config.Seed)
	}

	// Logging defaults
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}

	// Archive defaults
	if !config.Archive.Compression {
		t.Error("expected Archive.Compression to be true by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
generation:
  episodes: 5
  angle_noise: 0
  max_same_color_streak: 5
  reference_top_up: true
seed: 1234
archive:
  compression: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Generation.Episodes != 5 {
		t.Errorf("expected Episodes 5, got %d", config.Generation.Episodes)
	}
	if config.Generation.AngleNoise != 0 {
		t.Errorf("expected AngleNoise 0, got %f", config.Generation.AngleNoise)
	}
	if config.Generation.MaxSameColorStreak != 5 {
		t.Errorf("expected MaxSameColorStreak 5, got %d", config.Generation.MaxSameColorStreak)
	}
	if !config.Generation.ReferenceTopUp {
		t.Error("expected ReferenceTopUp to be true")
	}
	if config.Seed != 1234 {
		t.Errorf("expected Seed 1234, got %d", config.Seed)
	}
	if config.Archive.Compression {
		t.Error("expected Compression to be false")
	}

	// Unset fields keep their defaults.
	if config.Generation.RuleShift != 70 {
		t.Errorf("expected RuleShift default 70, got %f", config.Generation.RuleShift)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level default 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
archive:
  dir: ${TEST_ARCHIVE_ROOT}/backups
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_ARCHIVE_ROOT", "/srv/lab")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Archive.Dir != "/srv/lab/backups" {
		t.Errorf("expected Archive.Dir '/srv/lab/backups', got '%s'", config.Archive.Dir)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUESCHED_EPISODES", "3")
	t.Setenv("CUESCHED_ANGLE_NOISE", "2.5")
	t.Setenv("CUESCHED_MAX_SAME_COLOR_STREAK", "6")
	t.Setenv("CUESCHED_REFERENCE_TOP_UP", "1")
	t.Setenv("CUESCHED_SEED", "99")
	t.Setenv("CUESCHED_ARCHIVE_DIR", "/tmp/archives")

	config := Default()
	applyEnvOverrides(config)

	if config.Generation.Episodes != 3 {
		t.Errorf("expected Episodes 3, got %d", config.Generation.Episodes)
	}
	if config.Generation.AngleNoise != 2.5 {
		t.Errorf("expected AngleNoise 2.5, got %f", config.Generation.AngleNoise)
	}
	if config.Generation.MaxSameColorStreak != 6 {
		t.Errorf("expected MaxSameColorStreak 6, got %d", config.Generation.MaxSameColorStreak)
	}
	if !config.Generation.ReferenceTopUp {
		t.Error("expected ReferenceTopUp to be true")
	}
	if config.Seed != 99 {
		t.Errorf("expected Seed 99, got %d", config.Seed)
	}
	if config.Archive.Dir != "/tmp/archives" {
		t.Errorf("expected Archive.Dir '/tmp/archives', got '%s'", config.Archive.Dir)
	}
}

func TestEnvOverrides_IgnoresMalformed(t *testing.T) {
	t.Setenv("CUESCHED_EPISODES", "many")
	t.Setenv("CUESCHED_ANGLE_NOISE", "loud")

	config := Default()
	applyEnvOverrides(config)

	if config.Generation.Episodes != 9 {
		t.Errorf("expected Episodes to stay 9, got %d", config.Generation.Episodes)
	}
	if config.Generation.AngleNoise != 10 {
		t.Errorf("expected AngleNoise to stay 10, got %f", config.Generation.AngleNoise)
	}
}

func TestHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := HomeDir()
	if err != nil {
		t.Fatalf("HomeDir failed: %v", err)
	}
	if dir != filepath.Join(home, DirName) {
		t.Errorf("HomeDir() = %s, want %s", dir, filepath.Join(home, DirName))
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("DefaultPath() = %s, want a file in %s", path, dir)
	}
}

func TestLoad_HomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CUESCHED_LOG_LEVEL", "debug")

	path := filepath.Join(home, DirName, "config.yaml")
	cfg := Default()
	cfg.Generation.Episodes = 4
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Generation.Episodes != 4 {
		t.Errorf("expected Episodes 4 from file, got %d", loaded.Generation.Episodes)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("expected env to override log level, got '%s'", loaded.Logging.Level)
	}
}

func TestValidate_Valid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_InvalidGeneration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CueschedConfig)
	}{
		{"no episodes", func(c *CueschedConfig) { c.Generation.Episodes = 0 }},
		{"inverted lengths", func(c *CueschedConfig) { c.Generation.MinEpisodeLength = 30 }},
		{"omission rate above one", func(c *CueschedConfig) { c.Generation.MaxOmissionRate = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !schedule.IsConfigurationError(err) {
				t.Errorf("expected ConfigurationError, got %T: %v", err, err)
			}
		})
	}
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	t.Setenv("CUESCHED_LOG_LEVEL", "debug")

	config := Default()
	applyEnvOverrides(config)

	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_LoggingConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: trace
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	config := Default()
	config.Logging.Level = "verbose"
	if err := config.Validate(); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	validLevels := []string{"", "info", "debug", "trace"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			config := Default()
			config.Logging.Level = level
			if err := config.Validate(); err != nil {
				t.Errorf("expected log level '%s' to be valid, got error: %v", level, err)
			}
		})
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
generation:
  episodes: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestGetSet(t *testing.T) {
	config := Default()

	if err := config.Set("generation.episodes", "6"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := config.Get("generation.episodes"); !ok || v != 6 {
		t.Errorf("expected generation.episodes = 6, got %v (found=%v)", v, ok)
	}

	if err := config.Set("generation.angle_noise", "7.5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if config.Generation.AngleNoise != 7.5 {
		t.Errorf("expected AngleNoise 7.5, got %f", config.Generation.AngleNoise)
	}

	if err := config.Set("generation.reference_top_up", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !config.Generation.ReferenceTopUp {
		t.Error("expected ReferenceTopUp to be true")
	}

	if err := config.Set("seed", "-5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if config.Seed != -5 {
		t.Errorf("expected Seed -5, got %d", config.Seed)
	}
}

func TestSet_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown key", "generation.color", "red", "unknown configuration key"},
		{"not an integer", "generation.episodes", "nine", "invalid integer"},
		{"not a number", "generation.rule_shift", "wide", "invalid number"},
		{"fails validation", "generation.max_oddball_rate", "3", "max_oddball_rate"},
		{"bad log level", "logging.level", "loud", "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			err := config.Set(tt.key, tt.value)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if *config != *Default() {
				t.Error("config must be unchanged after a rejected Set")
			}
		})
	}
}

func TestKeys(t *testing.T) {
	config := Default()
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("expected keys")
	}
	for _, key := range keys {
		if _, ok := config.Get(key); !ok {
			t.Errorf("key %s listed but not readable", key)
		}
	}
}
