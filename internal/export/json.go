package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/cuesched/internal/schedule"
)

// WriteJSON writes the full result, including the episode plan, as
// indented JSON.
func WriteJSON(w io.Writer, res *schedule.Result) error {
	if res == nil {
		return fmt.Errorf("no schedule to export")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	return nil
}

// ReadJSON decodes a result written by WriteJSON.
func ReadJSON(r io.Reader) (*schedule.Result, error) {
	var res schedule.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return &res, nil
}
