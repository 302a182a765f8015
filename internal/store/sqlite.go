package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/cuesched/internal/schedule"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements ScheduleStore using SQLite for persistence.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// DatabaseFile is the SQLite file name inside the cuesched directory.
const DatabaseFile = "cuesched.db"

// NewSQLiteStore opens (or creates) the schedule database in dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Save stores a new schedule under a fresh ID.
func (s *SQLiteStore) Save(ctx context.Context, label string, params schedule.Params, result *schedule.Result) (*Record, error) {
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

	if err := s.write(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Import stores rec as-is, replacing any schedule with the same ID.
func (s *SQLiteStore) Import(ctx context.Context, rec Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(ctx, rec)
}

func (s *SQLiteStore) write(ctx context.Context, rec Record) error {
	res := rec.Result

	palette, err := json.Marshal(res.Palette)
	if err != nil {
		return fmt.Errorf("failed to marshal palette: %w", err)
	}
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	lengths, err := json.Marshal(res.EpisodeLengths)
	if err != nil {
		return fmt.Errorf("failed to marshal episode lengths: %w", err)
	}
	identities, err := json.Marshal(res.Identities)
	if err != nil {
		return fmt.Errorf("failed to marshal identities: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascades to episodes and trials of a replaced schedule.
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to replace schedule %s: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, label, created_at, seed, palette, params, episode_lengths, identities, plan_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nullString(rec.Label), rec.CreatedAt.UTC().Format(timeLayout), res.Seed,
		string(palette), string(params), string(lengths), string(identities), res.PlanAttempts)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	epStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO episodes (schedule_id, episode, length, sequence, required_start, learning_length)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare episode insert: %w", err)
	}
	defer epStmt.Close()

	for _, ep := range res.Episodes {
		seq, err := json.Marshal(ep.Sequence)
		if err != nil {
			return fmt.Errorf("failed to marshal episode %d: %w", ep.Index, err)
		}
		if _, err := epStmt.ExecContext(ctx, rec.ID, ep.Index, ep.Length, string(seq),
			nullString(ep.RequiredStart), ep.LearningLength); err != nil {
			return fmt.Errorf("failed to insert episode %d: %w", ep.Index, err)
		}
	}

	trialStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (schedule_id, trial_index, episode, episode_length, trial_in_episode,
			cue_color, cue_identity, target_angle, actual_angle, angle_noise, is_oddball, outcome_occurred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trial insert: %w", err)
	}
	defer trialStmt.Close()

	for _, t := range res.Trials {
		if _, err := trialStmt.ExecContext(ctx, rec.ID, t.TrialIndex, t.Episode, t.EpisodeLength, t.TrialInEpisode,
			t.CueColor, t.CueIdentity, t.TargetAngle, t.ActualAngle, t.AngleNoise,
			boolToInt(t.Oddball), t.OutcomeOccurred); err != nil {
			return fmt.Errorf("failed to insert trial %d: %w", t.TrialIndex, err)
		}
	}

	return tx.Commit()
}

// Get returns the schedule with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUnlocked(ctx, id)
}

// Latest returns the most recently created schedule.
func (s *SQLiteStore) Latest(ctx context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM schedules ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest schedule: %w", err)
	}
	return s.getUnlocked(ctx, id)
}

func (s *SQLiteStore) getUnlocked(ctx context.Context, id string) (*Record, error) {
	var (
		label                                      sql.NullString
		createdAt, palette, params, lengths, idsJS string
		res                                        schedule.Result
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT label, created_at, seed, palette, params, episode_lengths, identities, plan_attempts
		FROM schedules WHERE id = ?`, id).
		Scan(&label, &createdAt, &res.Seed, &palette, &params, &lengths, &idsJS, &res.PlanAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule %s: %w", id, err)
	}

	rec := Record{ID: id, Label: label.String, Result: &res}
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	if err := json.Unmarshal([]byte(palette), &res.Palette); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	if err := json.Unmarshal([]byte(lengths), &res.EpisodeLengths); err != nil {
		return nil, fmt.Errorf("failed to parse episode lengths: %w", err)
	}
	if err := json.Unmarshal([]byte(idsJS), &res.Identities); err != nil {
		return nil, fmt.Errorf("failed to parse identities: %w", err)
	}

	if res.Episodes, err = s.loadEpisodes(ctx, id); err != nil {
		return nil, err
	}
	if res.Trials, err = s.loadTrials(ctx, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) loadEpisodes(ctx context.Context, id string) ([]schedule.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT episode, length, sequence, required_start, learning_length
		FROM episodes WHERE schedule_id = ? ORDER BY episode`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []schedule.Episode
	for rows.Next() {
		var (
			ep       schedule.Episode
			seq      string
			required sql.NullString
		)
		if err := rows.Scan(&ep.Index, &ep.Length, &seq, &required, &ep.LearningLength); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		if err := json.Unmarshal([]byte(seq), &ep.Sequence); err != nil {
			return nil, fmt.Errorf("failed to parse episode %d sequence: %w", ep.Index, err)
		}
		ep.RequiredStart = required.String
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

func (s *SQLiteStore) loadTrials(ctx context.Context, id string) ([]schedule.Trial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trial_index, episode, episode_length, trial_in_episode, cue_color, cue_identity,
			target_angle, actual_angle, angle_noise, is_oddball, outcome_occurred
		FROM trials WHERE schedule_id = ? ORDER BY trial_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var trials []schedule.Trial
	for rows.Next() {
		var (
			t       schedule.Trial
			oddball int
		)
		if err := rows.Scan(&t.TrialIndex, &t.Episode, &t.EpisodeLength, &t.TrialInEpisode,
			&t.CueColor, &t.CueIdentity, &t.TargetAngle, &t.ActualAngle, &t.AngleNoise,
			&oddball, &t.OutcomeOccurred); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		t.Oddball = oddball != 0
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// List returns summaries of all schedules, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.created_at, s.seed, s.palette, s.episode_lengths,
			(SELECT COUNT(*) FROM trials t WHERE t.schedule_id = s.id)
		FROM schedules s ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var (
			sum                         Summary
			label                       sql.NullString
			createdAt, palette, lengths string
		)
		if err := rows.Scan(&sum.ID, &label, &createdAt, &sum.Seed, &palette, &lengths, &sum.Trials); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		sum.Label = label.String
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}

		var p schedule.Palette
		if err := json.Unmarshal([]byte(palette), &p); err != nil {
			return nil, fmt.Errorf("failed to parse palette: %w", err)
		}
		sum.Palette = p.Labels[0] + "/" + p.Labels[1]

		var ls []int
		if err := json.Unmarshal([]byte(lengths), &ls); err != nil {
			return nil, fmt.Errorf("failed to parse episode lengths: %w", err)
		}
		sum.Episodes = len(ls)

		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a schedule and, by cascade, its episodes and trials.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
