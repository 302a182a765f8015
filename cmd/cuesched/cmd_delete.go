package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nvandessel/cuesched/internal/store"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			id := args[0]

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(context.Background(), id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("schedule not found: %s", id)
				}
				return fmt.Errorf("failed to delete schedule: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"id":      id,
					"deleted": true,
				})
			}
			fmt.Printf("Deleted schedule %s\n", id)
			return nil
		},
	}
}
