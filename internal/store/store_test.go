package store

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/cuesched/internal/schedule"
)

func generate(t *testing.T, seed int64) (schedule.Params, *schedule.Result) {
	t.Helper()
	p := schedule.DefaultParams()
	res, err := schedule.Generate(p, schedule.WithSeed(seed))
	if err != nil {
		t.Fatalf("Generate(seed=%d) error = %v", seed, err)
	}
	return p, res
}

// storeFactories lets each contract test run against every implementation.
func storeFactories() map[string]func(t *testing.T) ScheduleStore {
	return map[string]func(t *testing.T) ScheduleStore{
		"memory": func(t *testing.T) ScheduleStore { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) ScheduleStore {
			s, err := NewSQLiteStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			return s
		},
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			p, res := generate(t, 1)
			rec, err := s.Save(ctx, "pilot", p, res)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if rec.ID == "" {
				t.Fatal("Save() returned empty ID")
			}

			got, err := s.Get(ctx, rec.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Label != "pilot" {
				t.Errorf("Label = %q, want pilot", got.Label)
			}
			if !got.CreatedAt.Equal(rec.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
			}
			if got.Params != p {
				t.Errorf("Params = %+v, want %+v", got.Params, p)
			}
			if !reflect.DeepEqual(got.Result, res) {
				t.Errorf("Result did not round-trip")
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
			if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
				t.Errorf("Latest() error = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ListAndLatest(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				p, res := generate(t, int64(10+i))
				rec := Record{
					ID:        []string{"a", "b", "c"}[i],
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
					Params:    p,
					Result:    res,
				}
				if err := s.Import(ctx, rec); err != nil {
					t.Fatalf("Import() error = %v", err)
				}
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("List() returned %d, want 3", len(list))
			}
			if list[0].ID != "c" || list[2].ID != "a" {
				t.Errorf("List() order = %s,%s,%s, want newest first", list[0].ID, list[1].ID, list[2].ID)
			}
			if list[0].Episodes != 9 || list[0].Seed != 12 || list[0].Trials == 0 || list[0].Palette == "" {
				t.Errorf("List()[0] = %+v, missing summary fields", list[0])
			}

			latest, err := s.Latest(ctx)
			if err != nil {
				t.Fatalf("Latest() error = %v", err)
			}
			if latest.ID != "c" {
				t.Errorf("Latest() = %s, want c", latest.ID)
			}

			if err := s.Delete(ctx, "c"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			latest, err = s.Latest(ctx)
			if err != nil {
				t.Fatalf("Latest() error = %v", err)
			}
			if latest.ID != "b" {
				t.Errorf("Latest() after delete = %s, want b", latest.ID)
			}
		})
	}
}

func TestStore_ImportReplaces(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			p, first := generate(t, 1)
			_, second := generate(t, 2)
			created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)

			if err := s.Import(ctx, Record{ID: "x", CreatedAt: created, Params: p, Result: first}); err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if err := s.Import(ctx, Record{ID: "x", CreatedAt: created, Params: p, Result: second}); err != nil {
				t.Fatalf("Import() error = %v", err)
			}

			list, _ := s.List(ctx)
			if len(list) != 1 {
				t.Fatalf("expected 1 schedule after replace, got %d", len(list))
			}
			got, err := s.Get(ctx, "x")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Result.Seed != 2 {
				t.Errorf("Seed = %d, want 2", got.Result.Seed)
			}
		})
	}
}

func TestStore_ImportRejectsInvalid(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			p, res := generate(t, 3)
			broken := *res
			broken.Trials = broken.Trials[1:]

			err := s.Import(context.Background(), Record{ID: "bad", CreatedAt: time.Now(), Params: p, Result: &broken})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Import() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewInMemoryStore()
	for seed := int64(1); seed <= 2; seed++ {
		p, res := generate(t, seed)
		if _, err := src.Save(ctx, "", p, res); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, src, &buf)
	if err != nil {
		t.Fatalf("ExportJSONL() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ExportJSONL() wrote %d, want 2", n)
	}
	buf.WriteString("not json\n")

	dst, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer dst.Close()

	imported, skipped, err := ImportJSONL(ctx, dst, &buf)
	if err != nil {
		t.Fatalf("ImportJSONL() error = %v", err)
	}
	if imported != 2 || skipped != 1 {
		t.Errorf("ImportJSONL() = %d imported, %d skipped; want 2, 1", imported, skipped)
	}

	want, _ := All(ctx, src)
	got, err := All(ctx, dst)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("All() returned %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !reflect.DeepEqual(got[i].Result, want[i].Result) {
			t.Errorf("record %d did not survive the round trip", i)
		}
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	p, res := generate(t, 4)
	rec, err := s.Save(ctx, "", p, res)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if err := ValidateIntegrity(ctx, s.db); err != nil {
		t.Errorf("ValidateIntegrity() error = %v", err)
	}
	if _, err := s.Get(ctx, rec.ID); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestResetSchema(t *testing.T) {
	s, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	p, res := generate(t, 5)
	if _, err := s.Save(ctx, "", p, res); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := ResetSchema(ctx, s.db); err != nil {
		t.Fatalf("ResetSchema() error = %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty store after reset, got %d", len(list))
	}

	version, err := getSchemaVersion(ctx, s.db)
	if err != nil || version != SchemaVersion {
		t.Errorf("schema version = %d (err %v), want %d", version, err, SchemaVersion)
	}
}

func TestSQLiteStore_RejectsUnknownSchemaVersion(t *testing.T) {
	tests := []struct {
		name    string
		version int
		want    string
	}{
		{"older", 0, "not supported"},
		{"newer", SchemaVersion + 1, "newer than supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			s, err := NewSQLiteStore(dir)
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			if _, err := s.db.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
				t.Fatal(err)
			}
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, tt.version); err != nil {
				t.Fatal(err)
			}
			s.Close()

			_, err = NewSQLiteStore(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("reopen error = %v, want %q", err, tt.want)
			}
		})
	}
}
