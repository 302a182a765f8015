package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/cuesched/internal/schedule"
)

// InMemoryStore implements ScheduleStore for testing and one-shot runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]Record),
	}
}

// Save stores a new schedule under a fresh ID.
func (s *InMemoryStore) Save(ctx context.Context, label string, params schedule.Params, result *schedule.Result) (*Record, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required")
	}

	rec := Record{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Params:    params,
		Result:    result,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return &rec, nil
}

// Import stores rec as-is, replacing any schedule with the same ID.
func (s *InMemoryStore) Import(ctx context.Context, rec Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return nil
}

// Get returns the schedule with the given ID.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &rec, nil
}

// Latest returns the most recently created schedule.
func (s *InMemoryStore) Latest(ctx context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.ordered()
	if len(ordered) == 0 {
		return nil, ErrNotFound
	}
	return &ordered[0], nil
}

// List returns summaries of all schedules, newest first.
func (s *InMemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.ordered()
	summaries := make([]Summary, 0, len(ordered))
	for i := range ordered {
		summaries = append(summaries, ordered[i].Summarize())
	}
	return summaries, nil
}

// ordered returns all records newest first, ties broken by descending ID
// to match the SQLite store.
func (s *InMemoryStore) ordered() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Delete removes a schedule.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
