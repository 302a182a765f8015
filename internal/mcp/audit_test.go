package mcp

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readAudit(t *testing.T, root string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(root, ".cuesched", AuditFile))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}

	if NewAuditLogger("") != nil {
		t.Error("NewAuditLogger(\"\") should return nil")
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	root := t.TempDir()
	logger := NewAuditLogger(root)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "cuesched_generate",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"seed": "7"},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	// Writes after close are dropped
	logger.Log(AuditEntry{Tool: "late"})

	entries := readAudit(t, root)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Tool != "cuesched_generate" || e.DurationMs != 42 || e.Status != "success" || e.Params["seed"] != "7" {
		t.Errorf("entry = %+v", e)
	}

	info, err := os.Stat(filepath.Join(root, ".cuesched", AuditFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("audit log permissions = %o, want 600", perm)
	}
}

func TestAuditLogger_Concurrent(t *testing.T) {
	root := t.TempDir()
	logger := NewAuditLogger(root)
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEntry{Tool: "cuesched_list", Status: "success"})
		}()
	}
	wg.Wait()

	if n := len(readAudit(t, root)); n != 50 {
		t.Errorf("got %d entries, want 50", n)
	}
}

func TestSanitizeToolParams(t *testing.T) {
	got := sanitizeToolParams(map[string]any{
		"seed":        int64(7),
		"episodes":    0,
		"label":       "subject 12 session notes",
		"output_path": "/home/u/.cuesched/exports/a.csv",
		"format":      "csv",
		"save":        false,
		"unknown":     "secret",
	})

	want := map[string]string{
		"seed":         "7",
		"label":        "(set)",
		"output_path":  "(set)",
		"format":       "csv",
		"_param_count": "5",
	}
	if len(got) != len(want) {
		t.Errorf("sanitizeToolParams() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("params[%s] = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["unknown"]; ok {
		t.Error("unknown params must not be logged")
	}

	if sanitizeToolParams(nil) != nil {
		t.Error("sanitizeToolParams(nil) should be nil")
	}
}
