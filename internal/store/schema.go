package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite store.
const schemaV1 = `
-- One row per generated schedule
CREATE TABLE IF NOT EXISTS schedules (
    id TEXT PRIMARY KEY,
    label TEXT,
    created_at TEXT NOT NULL,
    seed INTEGER NOT NULL,
    palette TEXT NOT NULL,          -- JSON
    params TEXT NOT NULL,           -- JSON
    episode_lengths TEXT NOT NULL,  -- JSON array
    identities TEXT NOT NULL,       -- JSON array
    plan_attempts INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_schedules_created ON schedules(created_at);

-- Episode plans
CREATE TABLE IF NOT EXISTS episodes (
    schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
    episode INTEGER NOT NULL,
    length INTEGER NOT NULL,
    sequence TEXT NOT NULL,         -- JSON array of colors
    required_start TEXT,
    learning_length INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (schedule_id, episode)
);

-- Trials, one row per exported CSV row
CREATE TABLE IF NOT EXISTS trials (
    schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
    trial_index INTEGER NOT NULL,
    episode INTEGER NOT NULL,
    episode_length INTEGER NOT NULL,
    trial_in_episode INTEGER NOT NULL,
    cue_color TEXT NOT NULL,
    cue_identity INTEGER NOT NULL,
    target_angle REAL NOT NULL,
    actual_angle REAL NOT NULL,
    angle_noise REAL NOT NULL,
    is_oddball INTEGER NOT NULL DEFAULT 0,
    outcome_occurred INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (schedule_id, trial_index)
);
CREATE INDEX IF NOT EXISTS idx_trials_episode ON trials(schedule_id, episode);

-- Schema version
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema initializes the database schema.
// It creates all tables on a fresh database and validates integrity and
// schema version on an existing one.
func InitSchema(ctx context.Context, db *sql.DB) error {
	// Check current schema version
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	// Validate database integrity
	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if currentVersion > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}

	// Version 1 is the only schema so far; there is nothing to migrate from.
	if currentVersion < SchemaVersion {
		return fmt.Errorf("database schema version %d is not supported", currentVersion)
	}

	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns 0 and an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// createSchema creates the initial database schema.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// ValidateIntegrity runs SQLite integrity checks on the database.
// It runs PRAGMA integrity_check and PRAGMA foreign_key_check.
// Returns an error if any issues are found.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("failed to scan integrity_check result: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}

	fkRows, err := db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("failed to run foreign_key_check: %w", err)
	}
	defer fkRows.Close()

	var fkErrors []string
	for fkRows.Next() {
		var table, rowid, parent, fkid sql.NullString
		if err := fkRows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign_key_check result: %w", err)
		}
		fkErrors = append(fkErrors, fmt.Sprintf("table=%s rowid=%s parent=%s fkid=%s", table.String, rowid.String, parent.String, fkid.String))
	}

	if len(fkErrors) > 0 {
		return fmt.Errorf("foreign_key_check failed: %v", fkErrors)
	}

	return nil
}

// ResetSchema drops all tables and recreates the schema.
// Only use for testing.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	tables := []string{
		"trials",
		"episodes",
		"schedules",
		"schema_version",
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return InitSchema(ctx, db)
}
