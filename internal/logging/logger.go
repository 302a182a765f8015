// Package logging provides leveled logging and retry tracing for cuesched.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An AttemptLogger for JSONL traces of sampling attempts
//     (.cuesched/attempts.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-attempt logging.
// At this level every rejected plan attempt is logged with its reason.
const LevelTrace = slog.LevelDebug - 4

// AttemptsFile is the name of the attempt trace inside the data directory.
const AttemptsFile = "attempts.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// AttemptLogger appends sampling attempt events to a JSONL file.
// It is safe for concurrent use. A nil AttemptLogger is safe to use;
// all methods are no-ops on nil receiver.
type AttemptLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAttemptLogger creates an attempt logger writing to dir/attempts.jsonl.
// At "info" level (the default) it returns nil and no file is created.
// At "debug" or "trace" the file is opened for append.
// Returns nil if the file cannot be opened.
func NewAttemptLogger(dir string, level string) *AttemptLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, AttemptsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &AttemptLogger{file: f}
}

// Rejected records a discarded attempt of a sampling stage.
func (al *AttemptLogger) Rejected(stage string, attempt int, reason error) {
	event := map[string]any{
		"event":   "attempt_rejected",
		"stage":   stage,
		"attempt": attempt,
	}
	if reason != nil {
		event["reason"] = reason.Error()
	}
	al.Log(event)
}

// Accepted records the attempt count of a stage that succeeded, plus any
// extra fields.
func (al *AttemptLogger) Accepted(stage string, attempts int, extra map[string]any) {
	event := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		event[k] = v
	}
	event["event"] = "attempt_accepted"
	event["stage"] = stage
	event["attempts"] = attempts
	al.Log(event)
}

// Log writes an event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
func (al *AttemptLogger) Log(event map[string]any) {
	if al == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file == nil {
		return
	}
	_, _ = al.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (al *AttemptLogger) Close() {
	if al == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file == nil {
		return
	}
	al.file.Close()
	al.file = nil
}
