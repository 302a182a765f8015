package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/cuesched/internal/archive"
	"github.com/nvandessel/cuesched/internal/config"
	"github.com/nvandessel/cuesched/internal/pathutil"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive every saved schedule to a backup file",
		Long: `Archive all saved schedules into a checksummed backup file.

Default location: ~/.cuesched/backups/cuesched-backup-YYYYMMDD-HHMMSS.json.gz
After writing, older backups in the same directory are pruned (default:
keep the last 10).

Examples:
  cuesched backup                              # Backup to default location
  cuesched backup --no-compress                # Plain JSON payload
  cuesched backup --keep 5 --max-age 30d       # Custom retention
  cuesched backup list                         # List all backups
  cuesched backup verify <file>                # Verify backup integrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			compress := cfg.Archive.Compression && !noCompress

			policy, err := buildRetentionPolicy(keep, maxAge)
			if err != nil {
				return err
			}

			if outputPath == "" {
				dir, err := backupDir(cfg)
				if err != nil {
					return err
				}
				outputPath = archive.GeneratePath(dir)
				if !compress {
					outputPath = strings.TrimSuffix(outputPath, ".gz")
				}
			} else if err := validateBackupPath(cfg, root, outputPath); err != nil {
				return fmt.Errorf("backup path rejected: %w", err)
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := archive.Backup(context.Background(), s, outputPath, compress)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			pruned, err := archive.Prune(filepath.Dir(outputPath), policy)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to apply retention: %v\n", err)
			}

			if jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"path":       outputPath,
					"schedules":  len(a.Schedules),
					"trials":     a.TrialCount(),
					"compressed": compress,
					"size_bytes": sizeBytes,
					"pruned":     len(pruned),
				})
			}

			label := "gzip"
			if !compress {
				label = "plain"
			}
			fmt.Printf("Backup created: %d schedules, %d trials (%s)\n", len(a.Schedules), a.TrialCount(), label)
			fmt.Printf("  Path: %s\n", pathutil.RedactPath(outputPath))
			if len(pruned) > 0 {
				fmt.Printf("  Pruned %d old backups\n", len(pruned))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in ~/.cuesched/backups/)")
	cmd.Flags().Bool("no-compress", false, "Write the payload uncompressed")
	cmd.Flags().Int("keep", 10, "Number of backups to keep (0 = no count limit)")
	cmd.Flags().String("max-age", "", "Also keep backups younger than this (e.g. 30d, 2w, 72h)")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)

	return cmd
}

// buildRetentionPolicy keeps an archive when any configured rule keeps it.
// With no rules at all every archive is kept.
func buildRetentionPolicy(keep int, maxAge string) (archive.RetentionPolicy, error) {
	var policies archive.AnyPolicy

	if keep > 0 {
		policies = append(policies, archive.CountPolicy{MaxCount: keep})
	}
	if maxAge != "" {
		d, err := archive.ParseDuration(maxAge)
		if err != nil {
			return nil, err
		}
		policies = append(policies, archive.AgePolicy{MaxAge: d})
	}

	switch len(policies) {
	case 0:
		return keepAll{}, nil
	case 1:
		return policies[0], nil
	default:
		return policies, nil
	}
}

type keepAll struct{}

func (keepAll) Apply(archives []archive.Info) []archive.Info { return archives }

// backupDir returns the configured archive directory or ~/.cuesched/backups.
func backupDir(cfg *config.CueschedConfig) (string, error) {
	if cfg.Archive.Dir != "" {
		return cfg.Archive.Dir, nil
	}
	dir, err := archive.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("failed to get backup directory: %w", err)
	}
	return dir, nil
}

// validateBackupPath confines user-supplied archive paths to the backup
// directories of the user, the project and the config.
func validateBackupPath(cfg *config.CueschedConfig, root, path string) error {
	allowedDirs, err := pathutil.AllowedDirs(pathutil.BackupsDir, root)
	if err != nil {
		return fmt.Errorf("failed to determine allowed backup dirs: %w", err)
	}
	if cfg.Archive.Dir != "" {
		allowedDirs = append(allowedDirs, cfg.Archive.Dir)
	}
	return pathutil.ValidatePath(path, allowedDirs)
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups with metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := backupDir(cfg)
			if err != nil {
				return err
			}

			backups, err := archive.List(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if jsonOut {
				if backups == nil {
					backups = []archive.Info{}
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"backups":     backups,
					"total_count": len(backups),
					"directory":   dir,
				})
			}

			if len(backups) == 0 {
				fmt.Printf("No backups found in %s\n", pathutil.RedactPath(dir))
				return nil
			}

			fmt.Printf("Backups in %s:\n", pathutil.RedactPath(dir))
			var totalSize int64
			for _, b := range backups {
				totalSize += b.Size
				fmt.Printf("  %-45s  %s  %4d schedules  %s\n",
					filepath.Base(b.Path),
					b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					b.Schedules,
					formatSize(b.Size),
				)
			}
			fmt.Printf("\n%d backups, %s total\n", len(backups), formatSize(totalSize))
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a backup's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := args[0]

			verr := archive.Verify(path)
			if jsonOut {
				out := map[string]interface{}{
					"path":  path,
					"valid": verr == nil,
				}
				if verr != nil {
					out["error"] = verr.Error()
				} else if h, err := archive.ReadHeader(path); err == nil {
					out["schedules"] = h.ScheduleCount
					out["trials"] = h.TrialCount
					out["checksum"] = h.Checksum
				}
				if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
					return err
				}
				return verr
			}

			if verr != nil {
				return fmt.Errorf("verification failed: %w", verr)
			}
			fmt.Printf("Backup OK: %s\n", pathutil.RedactPath(path))
			return nil
		},
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
