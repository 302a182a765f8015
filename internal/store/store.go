// Package store defines the ScheduleStore interface for persisting
// generated schedules.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/cuesched/internal/schedule"
)

// ErrNotFound is returned when no schedule matches the requested ID.
var ErrNotFound = errors.New("schedule not found")

// Record is one stored schedule together with the parameters that produced it.
type Record struct {
	ID        string           `json:"id"`
	Label     string           `json:"label,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Params    schedule.Params  `json:"params"`
	Result    *schedule.Result `json:"result"`
}

// Summary is the list view of a stored schedule.
type Summary struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Seed      int64     `json:"seed"`
	Episodes  int       `json:"episodes"`
	Trials    int       `json:"trials"`
	Palette   string    `json:"palette"` // "peach/mint"
}

// Summarize builds the list view of r.
func (r *Record) Summarize() Summary {
	s := Summary{
		ID:        r.ID,
		Label:     r.Label,
		CreatedAt: r.CreatedAt,
	}
	if r.Result != nil {
		s.Seed = r.Result.Seed
		s.Episodes = len(r.Result.EpisodeLengths)
		s.Trials = len(r.Result.Trials)
		s.Palette = r.Result.Palette.Labels[0] + "/" + r.Result.Palette.Labels[1]
	}
	return s
}

// ScheduleStore defines the interface for storing generated schedules.
type ScheduleStore interface {
	// Save stores a new schedule under a fresh ID and returns its record.
	Save(ctx context.Context, label string, params schedule.Params, result *schedule.Result) (*Record, error)

	// Import stores rec as-is, keeping its ID and creation time. An existing
	// schedule with the same ID is replaced.
	Import(ctx context.Context, rec Record) error

	// Get returns the schedule with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Latest returns the most recently created schedule, or ErrNotFound.
	Latest(ctx context.Context) (*Record, error)

	// List returns summaries of all schedules, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a schedule, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	Close() error
}
