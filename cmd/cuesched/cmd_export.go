package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/cuesched/internal/export"
	"github.com/nvandessel/cuesched/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id|latest]",
		Short: "Export a saved schedule",
		Long: `Export a saved schedule as CSV, JSON or Arrow, or dump every saved
schedule as JSONL with --all.

Examples:
  cuesched export latest                          # CSV to stdout
  cuesched export latest --format arrow --out run.arrow
  cuesched export --all --out schedules.jsonl     # Every schedule, restorable`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatName, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			all, _ := cmd.Flags().GetBool("all")

			if all == (len(args) == 1) {
				return fmt.Errorf("pass either a schedule id or --all")
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := context.Background()

			if all {
				return exportAll(ctx, s, outPath, jsonOut)
			}

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			rec, err := resolveRecord(ctx, s, args[0])
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err := writeTo(os.Stdout, format, rec.Result)
				return err
			}

			n, err := writeFile(outPath, format, rec.Result)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"id":     rec.ID,
					"format": format,
					"path":   outPath,
					"bytes":  n,
				})
			}
			fmt.Printf("Exported %s (%s, %d bytes) to %s\n", rec.ID, format, n, outPath)
			return nil
		},
	}

	cmd.Flags().String("format", string(export.FormatCSV), "Output format: csv, json or arrow")
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	cmd.Flags().Bool("all", false, "Export every saved schedule as JSONL")

	return cmd
}

func exportAll(ctx context.Context, s store.ScheduleStore, outPath string, jsonOut bool) error {
	if outPath == "" {
		_, err := store.ExportJSONL(ctx, s, os.Stdout)
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	n, err := store.ExportJSONL(ctx, s, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"format":    "jsonl",
			"path":      outPath,
			"schedules": n,
		})
	}
	fmt.Printf("Exported %d schedules to %s\n", n, outPath)
	return nil
}
