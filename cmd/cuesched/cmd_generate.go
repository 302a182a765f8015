package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/cuesched/internal/export"
	"github.com/nvandessel/cuesched/internal/sanitize"
	"github.com/nvandessel/cuesched/internal/schedule"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a trial schedule",
		Long: `Generate one trial schedule from the configured parameters.

The schedule is written to stdout (or --out) in the chosen format. Pass
--seed to reproduce an earlier schedule exactly; without it a seed is drawn
from the clock and reported on stderr.

Examples:
  cuesched generate                               # CSV to stdout
  cuesched generate --seed 42 --out run1.csv      # Reproducible, to a file
  cuesched generate --episodes 6 --format json    # Override episode count
  cuesched generate --save --label pilot          # Keep it in the store
  cuesched generate --format arrow --out run.arrow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			seed, _ := cmd.Flags().GetInt64("seed")
			episodes, _ := cmd.Flags().GetInt("episodes")
			formatName, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			save, _ := cmd.Flags().GetBool("save")
			label, _ := cmd.Flags().GetString("label")
			referenceTopUp, _ := cmd.Flags().GetBool("reference-top-up")

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, attempts := newLoggers(cfg)
			defer attempts.Close()

			params := cfg.Generation
			if cmd.Flags().Changed("episodes") {
				params.Episodes = episodes
			}
			if cmd.Flags().Changed("reference-top-up") {
				params.ReferenceTopUp = referenceTopUp
			}

			opts := []schedule.Option{
				schedule.WithLogger(logger),
				schedule.WithAttemptLogger(attempts),
			}
			switch {
			case cmd.Flags().Changed("seed"):
				opts = append(opts, schedule.WithSeed(seed))
			case cfg.Seed != 0:
				opts = append(opts, schedule.WithSeed(cfg.Seed))
			}

			result, err := schedule.Generate(params, opts...)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			var savedID string
			if save {
				s, err := openStore()
				if err != nil {
					return err
				}
				defer s.Close()

				rec, err := s.Save(context.Background(), sanitize.Label(label), params, result)
				if err != nil {
					return fmt.Errorf("failed to save schedule: %w", err)
				}
				savedID = rec.ID
			}

			if outPath == "" {
				// The schedule itself is the output; anything else goes to stderr.
				if err := export.Write(os.Stdout, format, result); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "seed %d, %d trials\n", result.Seed, len(result.Trials))
				if savedID != "" {
					fmt.Fprintf(os.Stderr, "saved as %s\n", savedID)
				}
				return nil
			}

			n, err := writeFile(outPath, format, result)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"id":            savedID,
					"seed":          result.Seed,
					"palette":       result.Palette.Labels,
					"trials":        len(result.Trials),
					"plan_attempts": result.PlanAttempts,
					"path":          outPath,
					"format":        format,
					"bytes":         n,
				})
			}

			fmt.Printf("Generated %d trials in %d episodes (seed %d, palette %s/%s)\n",
				len(result.Trials), len(result.EpisodeLengths), result.Seed,
				result.Palette.Labels[0], result.Palette.Labels[1])
			fmt.Printf("  Path: %s\n", outPath)
			if savedID != "" {
				fmt.Printf("  Saved as: %s\n", savedID)
			}
			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Random seed (default: config seed, else the clock)")
	cmd.Flags().Int("episodes", 0, "Number of episodes (default: from config)")
	cmd.Flags().String("format", string(export.FormatCSV), "Output format: csv, json or arrow")
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	cmd.Flags().Bool("save", false, "Save the schedule to the store")
	cmd.Flags().String("label", "", "Label for a saved schedule")
	cmd.Flags().Bool("reference-top-up", false, "Top up omissions without the adjacency check")

	return cmd
}

// writeFile encodes res into path and returns the number of bytes written.
// The file is only created once encoding has succeeded.
func writeFile(path string, f export.Format, res *schedule.Result) (int, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, f, res); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return buf.Len(), nil
}

// writeTo is writeFile for an already open destination.
func writeTo(w io.Writer, f export.Format, res *schedule.Result) (int, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, f, res); err != nil {
		return 0, err
	}
	return w.Write(buf.Bytes())
}
