package store

import (
	"errors"
	"fmt"
)

// ValidationError describes an inconsistency in a schedule record.
type ValidationError struct {
	ScheduleID string `json:"schedule_id"`
	Field      string `json:"field"`
	Issue      string `json:"issue"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule %s: %s: %s", e.ScheduleID, e.Field, e.Issue)
}

// ValidateRecord checks that rec is internally consistent before it is
// imported: trial counts match the episode plan, trial indices are
// sequential and every cue color belongs to the palette. It does not
// re-check the sampling constraints.
func ValidateRecord(rec Record) error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{ScheduleID: rec.ID, Field: field, Issue: fmt.Sprintf(format, args...)})
	}

	if rec.ID == "" {
		bad("id", "is required")
	}
	if rec.CreatedAt.IsZero() {
		bad("created_at", "is required")
	}
	if rec.Result == nil {
		bad("result", "is required")
		return errors.Join(errs...)
	}

	res := rec.Result
	total := 0
	for _, l := range res.EpisodeLengths {
		total += l
	}
	if len(res.Trials) != total {
		bad("trials", "have %d trials for episode lengths summing to %d", len(res.Trials), total)
	}
	if len(res.Episodes) != 0 && len(res.Episodes) != len(res.EpisodeLengths) {
		bad("episodes", "have %d episode plans for %d episode lengths", len(res.Episodes), len(res.EpisodeLengths))
	}

	for i, t := range res.Trials {
		if t.TrialIndex != i+1 {
			bad("trials", "trial at position %d has index %d", i+1, t.TrialIndex)
			break
		}
		if res.Palette.Identity(t.CueColor) != t.CueIdentity || t.CueIdentity == 0 {
			bad("trials", "trial %d cue %q does not match identity %d", t.TrialIndex, t.CueColor, t.CueIdentity)
			break
		}
		if t.TargetAngle < 0 || t.TargetAngle >= 360 || t.ActualAngle < 0 || t.ActualAngle >= 360 {
			bad("trials", "trial %d angle out of range", t.TrialIndex)
			break
		}
	}

	return errors.Join(errs...)
}
