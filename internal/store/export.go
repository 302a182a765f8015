package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// All loads every stored schedule, newest first.
func All(ctx context.Context, s ScheduleStore) ([]Record, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(summaries))
	for _, sum := range summaries {
		rec, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule %s: %w", sum.ID, err)
		}
		records = append(records, *rec)
	}
	return records, nil
}

// ExportJSONL writes every stored schedule to w as one JSON record per line.
// It returns the number of records written.
func ExportJSONL(ctx context.Context, s ScheduleStore, w io.Writer) (int, error) {
	records, err := All(ctx, s)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("failed to write schedule %s: %w", rec.ID, err)
		}
	}
	return len(records), nil
}

// ImportJSONL reads records written by ExportJSONL into s. Lines that do
// not parse are skipped and counted; records that fail validation abort
// the import.
func ImportJSONL(ctx context.Context, s ScheduleStore, r io.Reader) (imported, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	// Schedules are single long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}

		if err := s.Import(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("failed to import line %d: %w", lineNum, err)
		}
		imported++
	}

	if err := scanner.Err(); err != nil {
		return imported, skipped, fmt.Errorf("scanner error: %w", err)
	}
	return imported, skipped, nil
}
