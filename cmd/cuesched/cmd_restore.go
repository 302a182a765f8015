package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/cuesched/internal/archive"
	"github.com/nvandessel/cuesched/internal/config"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore saved schedules from a backup or JSONL export",
		Long: `Restore schedules from a backup archive or an 'export --all' JSONL file.
The format is auto-detected. The file must live in a backup directory.

Modes:
  merge   - Skip schedules whose ID already exists (default)
  replace - Delete every saved schedule first, then restore

Examples:
  cuesched restore ~/.cuesched/backups/cuesched-backup-20260301-120000.json.gz
  cuesched restore ~/.cuesched/backups/schedules.jsonl --mode replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			modeName, _ := cmd.Flags().GetString("mode")

			mode, err := archive.ParseRestoreMode(modeName)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := validateBackupPath(cfg, root, inputPath); err != nil {
				return fmt.Errorf("restore path rejected: %w", err)
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := archive.Restore(context.Background(), s, inputPath, mode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"path":     inputPath,
					"mode":     mode,
					"format":   result.Format,
					"restored": result.Restored,
					"skipped":  result.Skipped,
					"removed":  result.Removed,
				})
			}

			fmt.Printf("Restored %d schedules (%d skipped", result.Restored, result.Skipped)
			if mode == archive.RestoreReplace {
				fmt.Printf(", %d removed", result.Removed)
			}
			fmt.Println(")")
			return nil
		},
	}

	cmd.Flags().String("mode", string(archive.RestoreMerge), "Restore mode: merge or replace")

	return cmd
}
