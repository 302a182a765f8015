package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/cuesched/internal/store"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved schedules",
		Long: `List schedules saved with 'generate --save', newest first.

Examples:
  cuesched list
  cuesched list --limit 5
  cuesched list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			summaries, err := s.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}
			total := len(summaries)
			if limit > 0 && len(summaries) > limit {
				summaries = summaries[:limit]
			}

			if jsonOut {
				if summaries == nil {
					summaries = []store.Summary{}
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"schedules": summaries,
					"count":     len(summaries),
					"total":     total,
				})
			}

			if len(summaries) == 0 {
				fmt.Println("No saved schedules. Use 'cuesched generate --save' to keep one.")
				return nil
			}

			fmt.Printf("%-36s  %-20s  %12s  %8s  %6s  %-14s  %s\n",
				"ID", "CREATED", "SEED", "EPISODES", "TRIALS", "PALETTE", "LABEL")
			for _, sum := range summaries {
				fmt.Printf("%-36s  %-20s  %12d  %8d  %6d  %-14s  %s\n",
					sum.ID,
					sum.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					sum.Seed,
					sum.Episodes,
					sum.Trials,
					sum.Palette,
					sum.Label,
				)
			}
			if total > len(summaries) {
				fmt.Printf("\nShowing %d of %d schedules\n", len(summaries), total)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum number of schedules to show (0 = all)")

	return cmd
}
