package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/cuesched/internal/export"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|latest>",
		Short: "Show a saved schedule's episode summary",
		Long: `Show the parameters and per-episode summary of a saved schedule:
length, learning length, starting cue, omissions, oddballs and the
longest same-color streak.

Examples:
  cuesched show latest
  cuesched show 3f2c9a1e-... --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := resolveRecord(context.Background(), s, args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"schedule": rec.Summarize(),
					"params":   rec.Params,
					"episodes": export.Summarize(rec.Result),
				})
			}

			sum := rec.Summarize()
			fmt.Printf("Schedule %s\n", rec.ID)
			fmt.Printf("  Label:    %s\n", valueOrDefault(rec.Label, "(none)"))
			fmt.Printf("  Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("  Seed:     %d\n", sum.Seed)
			fmt.Printf("  Palette:  %s\n", sum.Palette)
			fmt.Printf("  Attempts: %d\n", rec.Result.PlanAttempts)
			fmt.Println()
			return export.WriteSummary(os.Stdout, rec.Result)
		},
	}
}
