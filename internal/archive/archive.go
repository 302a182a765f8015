// Package archive writes and restores checksummed snapshots of the schedule
// store.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/cuesched/internal/config"
	"github.com/nvandessel/cuesched/internal/pathutil"
	"github.com/nvandessel/cuesched/internal/store"
)

// Archive is the payload of an archive file.
type Archive struct {
	CreatedAt time.Time      `json:"created_at"`
	Schedules []store.Record `json:"schedules"`
}

// TrialCount returns the number of trials across all archived schedules.
func (a *Archive) TrialCount() int {
	n := 0
	for _, rec := range a.Schedules {
		if rec.Result != nil {
			n += len(rec.Result.Trials)
		}
	}
	return n
}

// DefaultDir returns the default archive directory (~/.cuesched/backups/).
func DefaultDir() (string, error) {
	dir, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pathutil.BackupsDir), nil
}

// GeneratePath creates a timestamped archive filename in dir.
func GeneratePath(dir string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("cuesched-backup-%s.json.gz", ts))
}

// Backup snapshots every schedule in s into a V2 archive at path.
func Backup(ctx context.Context, s store.ScheduleStore, path string, compress bool) (*Archive, error) {
	records, err := store.All(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to collect schedules: %w", err)
	}

	a := &Archive{
		CreatedAt: time.Now().UTC(),
		Schedules: records,
	}
	if err := WriteV2(path, a, compress); err != nil {
		return nil, err
	}
	return a, nil
}

// RestoreMode controls how restore handles schedules already in the store.
type RestoreMode string

const (
	// RestoreMerge keeps existing schedules and skips archived ones with
	// the same ID.
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace deletes every stored schedule before restoring.
	RestoreReplace RestoreMode = "replace"
)

// ParseRestoreMode validates a mode name.
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch m := RestoreMode(s); m {
	case RestoreMerge, RestoreReplace:
		return m, nil
	default:
		return "", fmt.Errorf("invalid restore mode %q (want merge or replace)", s)
	}
}

// RestoreResult contains statistics about a restore.
type RestoreResult struct {
	Format   int `json:"format"`
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
	Removed  int `json:"removed"`
}

// Restore loads the archive or JSONL export at path into s.
func Restore(ctx context.Context, s store.ScheduleStore, path string, mode RestoreMode) (*RestoreResult, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var records []store.Record
	switch format {
	case FormatV2:
		a, err := ReadV2(path)
		if err != nil {
			return nil, err
		}
		records = a.Schedules
	case FormatJSONL:
		records, err = readJSONL(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	// Stage every record first so a bad one fails the restore before the
	// store is touched.
	staged := store.NewInMemoryStore()
	for _, rec := range records {
		if err := staged.Import(ctx, rec); err != nil {
			return nil, fmt.Errorf("invalid schedule %s in %s: %w", rec.ID, filepath.Base(path), err)
		}
	}
	records, err = store.All(ctx, staged)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Format: format}
	if mode == RestoreReplace {
		existing, err := s.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list schedules: %w", err)
		}
		for _, sum := range existing {
			if err := s.Delete(ctx, sum.ID); err != nil {
				return nil, fmt.Errorf("failed to remove schedule %s: %w", sum.ID, err)
			}
			result.Removed++
		}
	}

	for _, rec := range records {
		if mode == RestoreMerge {
			_, err := s.Get(ctx, rec.ID)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to check schedule %s: %w", rec.ID, err)
			}
		}
		if err := s.Import(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to restore schedule %s: %w", rec.ID, err)
		}
		result.Restored++
	}
	return result, nil
}

// readJSONL loads a JSONL export through an in-memory store so malformed
// lines are skipped the same way ImportJSONL skips them.
func readJSONL(ctx context.Context, path string) ([]store.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	mem := store.NewInMemoryStore()
	if _, _, err := store.ImportJSONL(ctx, mem, f); err != nil {
		return nil, err
	}
	return store.All(ctx, mem)
}
