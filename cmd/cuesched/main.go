package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cuesched",
		Short: "Trial schedule synthesis for cue-outcome learning tasks",
		Long: `cuesched generates randomized trial schedules for a two-cue learning task:
balanced episode starts, bounded color streaks, omitted outcomes and oddball
trials, with every response angle derived from the cue's rule.

Schedules are reproducible from their seed and can be saved, exported as
CSV, JSON or Arrow, archived and served to agents over MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.cuesched/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newListCmd(),
		newShowCmd(),
		newExportCmd(),
		newDeleteCmd(),
		newConfigCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
