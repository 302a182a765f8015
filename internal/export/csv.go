// Package export renders generated schedules as CSV, JSON and Apache Arrow
// IPC files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/cuesched/internal/schedule"
)

// Columns is the tabular column order shared by every row-oriented format.
var Columns = []string{
	"episode",
	"trial_in_episode",
	"cue_color",
	"cue_identity",
	"target_vector_angle",
	"actual_vector_angle",
	"angle_noise",
	"trial_index",
	"is_oddball",
	"outcome_occurred",
}

// Format names an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatArrow Format = "arrow"
)

// ParseFormat accepts a format name as typed on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatArrow:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or arrow)", s)
	}
}

// Write encodes res to w in the given format.
func Write(w io.Writer, f Format, res *schedule.Result) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatArrow:
		return WriteArrow(w, res)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// Row renders one trial as CSV fields in Columns order.
func Row(t schedule.Trial) []string {
	return []string{
		strconv.Itoa(t.Episode),
		strconv.Itoa(t.TrialInEpisode),
		t.CueColor,
		strconv.Itoa(t.CueIdentity),
		formatAngle(t.TargetAngle),
		formatAngle(t.ActualAngle),
		formatAngle(t.AngleNoise),
		strconv.Itoa(t.TrialIndex),
		flag(t.Oddball),
		strconv.Itoa(t.OutcomeOccurred),
	}
}

// WriteCSV writes a header row followed by one row per trial.
func WriteCSV(w io.Writer, res *schedule.Result) error {
	if res == nil {
		return fmt.Errorf("no schedule to export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range res.Trials {
		if err := cw.Write(Row(t)); err != nil {
			return fmt.Errorf("failed to write trial %d: %w", t.TrialIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAngle(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
