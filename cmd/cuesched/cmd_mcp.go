package main

import (
	"context"
	"fmt"

	"github.com/nvandessel/cuesched/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve schedule tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing
cuesched_generate, cuesched_list, cuesched_show and cuesched_export, plus
the cuesched://schedules/latest resource.

Tool calls are rate limited and audited to <root>/.cuesched/audit.jsonl.
Logs go to stderr so they never corrupt the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, attempts := newLoggers(cfg)
			defer attempts.Close()

			s, err := openStore()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:          "cuesched",
				Version:       version,
				Root:          root,
				Params:        &cfg.Generation,
				Seed:          cfg.Seed,
				Store:         s,
				Logger:        logger,
				AttemptLogger: attempts,
			})
			if err != nil {
				s.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			logger.Info("mcp server starting", "root", root, "store", s.Path())
			return server.Run(context.Background())
		},
	}
}
