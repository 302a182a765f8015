package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nvandessel/cuesched/internal/config"
	"github.com/nvandessel/cuesched/internal/logging"
	"github.com/nvandessel/cuesched/internal/store"
	"github.com/spf13/cobra"
)

// loadConfig reads the file named by --config, or the default config
// location when the flag is empty, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.CueschedConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.CueschedConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath returns the file config set should write to.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// newLoggers builds the stderr logger and, at debug or trace level, the
// attempt logger under ~/.cuesched. The attempt logger may be nil.
func newLoggers(cfg *config.CueschedConfig) (*slog.Logger, *logging.AttemptLogger) {
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	var attempts *logging.AttemptLogger
	if dir, err := config.HomeDir(); err == nil {
		attempts = logging.NewAttemptLogger(dir, cfg.Logging.Level)
	}
	return logger, attempts
}

// openStore opens the SQLite schedule store in ~/.cuesched.
func openStore() (*store.SQLiteStore, error) {
	dir, err := config.HomeDir()
	if err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// resolveRecord fetches a schedule by ID, or the newest one for "latest".
func resolveRecord(ctx context.Context, s store.ScheduleStore, id string) (*store.Record, error) {
	if strings.EqualFold(strings.TrimSpace(id), "latest") {
		rec, err := s.Latest(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no schedules saved yet")
		}
		return rec, err
	}
	rec, err := s.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("schedule not found: %s", id)
	}
	return rec, err
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
