package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/cuesched/internal/export"
	"github.com/nvandessel/cuesched/internal/pathutil"
	"github.com/nvandessel/cuesched/internal/sanitize"
	"github.com/nvandessel/cuesched/internal/schedule"
	"github.com/nvandessel/cuesched/internal/store"
)

const latestURI = "cuesched://schedules/latest"

// registerTools registers all cuesched MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "cuesched_generate",
		Description: "Generate a randomized, constraint-satisfying trial schedule and optionally save it",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "cuesched_list",
		Description: "List saved schedules, newest first",
	}, s.handleList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "cuesched_show",
		Description: "Show the parameters and per-episode summary of a saved schedule",
	}, s.handleShow)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "cuesched_export",
		Description: "Export a saved schedule as CSV, JSON or Arrow",
	}, s.handleExport)
}

// registerResources exposes the latest saved schedule as CSV.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         latestURI,
		Name:        "cuesched-latest-schedule",
		Description: "The most recently saved trial schedule, one CSV row per trial.",
		MIMEType:    "text/csv",
	}, s.handleLatestResource)
}

func (s *Server) handleLatestResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	rec, err := s.store.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return &sdk.ReadResourceResult{
			Contents: []*sdk.ResourceContents{{
				URI:      latestURI,
				MIMEType: "text/plain",
				Text:     "No saved schedules yet. Generate one with `cuesched_generate` and save=true.\n",
			}},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest schedule: %w", err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rec.Result); err != nil {
		return nil, err
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      latestURI,
			MIMEType: "text/csv",
			Text:     buf.String(),
		}},
	}, nil
}

// handleGenerate implements the cuesched_generate tool.
func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("cuesched_generate", start, retErr, sanitizeToolParams(map[string]any{
			"seed": args.Seed, "episodes": args.Episodes, "reference_top_up": args.ReferenceTopUp,
			"save": args.Save, "label": args.Label, "include_trials": args.IncludeTrials,
		}))
	}()

	if err := s.limiters.Check("cuesched_generate"); err != nil {
		return nil, GenerateOutput{}, err
	}

	params := s.params
	if args.Episodes != 0 {
		params.Episodes = args.Episodes
	}
	if args.ReferenceTopUp {
		params.ReferenceTopUp = true
	}

	opts := []schedule.Option{
		schedule.WithLogger(s.logger),
		schedule.WithAttemptLogger(s.attempts),
	}
	switch {
	case args.Seed != 0:
		opts = append(opts, schedule.WithSeed(args.Seed))
	case s.seed != 0:
		opts = append(opts, schedule.WithSeed(s.seed))
	}

	res, err := schedule.Generate(params, opts...)
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("generation failed: %w", err)
	}

	out := GenerateOutput{
		Seed:         res.Seed,
		Palette:      res.Palette.Labels[0] + "/" + res.Palette.Labels[1],
		Trials:       len(res.Trials),
		PlanAttempts: res.PlanAttempts,
		Episodes:     export.Summarize(res),
	}
	if args.IncludeTrials {
		out.TrialRows = res.Trials
	}

	if args.Save {
		rec, err := s.store.Save(ctx, sanitize.Label(args.Label), params, res)
		if err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("failed to save schedule: %w", err)
		}
		out.ID = rec.ID
		out.Message = fmt.Sprintf("Generated and saved %d trials over %d episodes as %s (seed %d)", out.Trials, params.Episodes, rec.ID, res.Seed)
	} else {
		out.Message = fmt.Sprintf("Generated %d trials over %d episodes (seed %d)", out.Trials, params.Episodes, res.Seed)
	}
	return nil, out, nil
}

// handleList implements the cuesched_list tool.
func (s *Server) handleList(ctx context.Context, req *sdk.CallToolRequest, args ListInput) (_ *sdk.CallToolResult, _ ListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("cuesched_list", start, retErr, sanitizeToolParams(map[string]any{"limit": args.Limit}))
	}()

	if err := s.limiters.Check("cuesched_list"); err != nil {
		return nil, ListOutput{}, err
	}
	if args.Limit < 0 {
		return nil, ListOutput{}, fmt.Errorf("'limit' must not be negative")
	}

	summaries, err := s.store.List(ctx)
	if err != nil {
		return nil, ListOutput{}, fmt.Errorf("failed to list schedules: %w", err)
	}
	total := len(summaries)
	if args.Limit > 0 && len(summaries) > args.Limit {
		summaries = summaries[:args.Limit]
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}

	return nil, ListOutput{
		Schedules: summaries,
		Count:     len(summaries),
		Total:     total,
	}, nil
}

// handleShow implements the cuesched_show tool.
func (s *Server) handleShow(ctx context.Context, req *sdk.CallToolRequest, args ShowInput) (_ *sdk.CallToolResult, _ ShowOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("cuesched_show", start, retErr, sanitizeToolParams(map[string]any{"id": args.ID}))
	}()

	if err := s.limiters.Check("cuesched_show"); err != nil {
		return nil, ShowOutput{}, err
	}

	rec, err := s.lookup(ctx, args.ID)
	if err != nil {
		return nil, ShowOutput{}, err
	}

	return nil, ShowOutput{
		Schedule: rec.Summarize(),
		Params:   rec.Params,
		Episodes: export.Summarize(rec.Result),
	}, nil
}

// handleExport implements the cuesched_export tool.
func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("cuesched_export", start, retErr, sanitizeToolParams(map[string]any{
			"id": args.ID, "format": args.Format, "output_path": args.OutputPath,
		}))
	}()

	if err := s.limiters.Check("cuesched_export"); err != nil {
		return nil, ExportOutput{}, err
	}

	formatName := args.Format
	if formatName == "" {
		formatName = string(export.FormatCSV)
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	if format == export.FormatArrow && args.OutputPath == "" {
		return nil, ExportOutput{}, fmt.Errorf("arrow export is binary; 'output_path' is required")
	}

	rec, err := s.lookup(ctx, args.ID)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, rec.Result); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("export failed: %w", err)
	}
	out := ExportOutput{ID: rec.ID, Format: string(format), Bytes: buf.Len()}

	if args.OutputPath == "" {
		out.Content = buf.String()
		return nil, out, nil
	}

	allowedDirs, err := pathutil.AllowedDirs(pathutil.ExportsDir, s.root)
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to determine allowed export dirs: %w", err)
	}
	if err := pathutil.ValidatePath(args.OutputPath, allowedDirs); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("export path rejected: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(args.OutputPath), 0700); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(args.OutputPath, buf.Bytes(), 0600); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to write export: %w", err)
	}
	out.Path = args.OutputPath
	return nil, out, nil
}

// lookup resolves a schedule ID, accepting "latest".
func (s *Server) lookup(ctx context.Context, id string) (*store.Record, error) {
	if strings.EqualFold(strings.TrimSpace(id), "latest") {
		rec, err := s.store.Latest(ctx)
		if err != nil {
			return nil, fmt.Errorf("no latest schedule: %w", err)
		}
		return rec, nil
	}

	clean := sanitize.Identifier(id)
	if clean == "" {
		return nil, fmt.Errorf("'id' parameter is required")
	}
	return s.store.Get(ctx, clean)
}
