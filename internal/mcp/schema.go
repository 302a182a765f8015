package mcp

import (
	"github.com/nvandessel/cuesched/internal/export"
	"github.com/nvandessel/cuesched/internal/schedule"
	"github.com/nvandessel/cuesched/internal/store"
)

// GenerateInput defines the input for the cuesched_generate tool.
type GenerateInput struct {
	Seed           int64  `json:"seed,omitempty" jsonschema:"Random seed; 0 or absent draws a fresh one"`
	Episodes       int    `json:"episodes,omitempty" jsonschema:"Number of episodes (1-1000), overriding the configured value"`
	ReferenceTopUp bool   `json:"reference_top_up,omitempty" jsonschema:"Top up omissions without the adjacency check"`
	Save           bool   `json:"save,omitempty" jsonschema:"Store the schedule so it can be shown and exported later"`
	Label          string `json:"label,omitempty" jsonschema:"Free-text label for a saved schedule"`
	IncludeTrials  bool   `json:"include_trials,omitempty" jsonschema:"Return every trial row in the response"`
}

// GenerateOutput defines the output for the cuesched_generate tool.
type GenerateOutput struct {
	ID           string                  `json:"id,omitempty" jsonschema:"ID of the saved schedule"`
	Seed         int64                   `json:"seed" jsonschema:"Seed that reproduces this schedule"`
	Palette      string                  `json:"palette" jsonschema:"Cue palette labels, identity 1 first"`
	Trials       int                     `json:"trials" jsonschema:"Total number of trials"`
	PlanAttempts int                     `json:"plan_attempts" jsonschema:"Episode plan attempts before success"`
	Episodes     []export.EpisodeSummary `json:"episodes" jsonschema:"Per-episode summary"`
	TrialRows    []schedule.Trial        `json:"trial_rows,omitempty" jsonschema:"Trial rows when include_trials is set"`
	Message      string                  `json:"message" jsonschema:"Human-readable result message"`
}

// ListInput defines the input for the cuesched_list tool.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of schedules to return, newest first"`
}

// ListOutput defines the output for the cuesched_list tool.
type ListOutput struct {
	Schedules []store.Summary `json:"schedules" jsonschema:"Stored schedules, newest first"`
	Count     int             `json:"count" jsonschema:"Number of schedules returned"`
	Total     int             `json:"total" jsonschema:"Number of schedules stored"`
}

// ShowInput defines the input for the cuesched_show tool.
type ShowInput struct {
	ID string `json:"id" jsonschema:"Schedule ID, or 'latest'"`
}

// ShowOutput defines the output for the cuesched_show tool.
type ShowOutput struct {
	Schedule store.Summary           `json:"schedule"`
	Params   schedule.Params         `json:"params"`
	Episodes []export.EpisodeSummary `json:"episodes"`
}

// ExportInput defines the input for the cuesched_export tool.
type ExportInput struct {
	ID         string `json:"id" jsonschema:"Schedule ID, or 'latest'"`
	Format     string `json:"format,omitempty" jsonschema:"csv (default), json or arrow"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"Write to this file under .cuesched/exports instead of returning the content; required for arrow"`
}

// ExportOutput defines the output for the cuesched_export tool.
type ExportOutput struct {
	ID      string `json:"id"`
	Format  string `json:"format"`
	Content string `json:"content,omitempty" jsonschema:"Exported text when no output_path was given"`
	Path    string `json:"path,omitempty" jsonschema:"File written when output_path was given"`
	Bytes   int    `json:"bytes"`
}
