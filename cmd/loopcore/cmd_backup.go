package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/protoloop/loopcore/internal/backup"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export an agent's full record to a backup file",
		Long: `Export an agent's cognitive state, memory bank, and archived loop
history to a compressed, checksummed backup file.

Examples:
  loopcore backup --agent p1                   # ~/.loopcore/backups/
  loopcore backup --agent p1 --output p1.backup
  loopcore backup --agent p1 --keep 5          # prune old backups`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			keep, _ := cmd.Flags().GetInt("keep")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			backupDir, err := backup.DefaultDir()
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(backupDir, backup.DefaultFileName(agentID, time.Now()))
			}

			header, err := backup.Backup(cmd.Context(), rt.repo, agentID, output)
			if err != nil {
				return err
			}

			var pruned int
			if keep > 0 {
				deleted, err := backup.Prune(backupDir, backup.CountPolicy{MaxCount: keep})
				if err != nil {
					return fmt.Errorf("prune backups: %w", err)
				}
				pruned = len(deleted)
			}

			if jsonOut {
				return printJSON(cmd, map[string]any{
					"path":       output,
					"agent":      header.AgentID,
					"loop_count": header.LoopCount,
					"checksum":   header.Checksum,
					"pruned":     pruned,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backed up %s (%d loops) to %s\n", header.AgentID, header.LoopCount, output)
			if pruned > 0 {
				fmt.Fprintf(out, "Pruned %d old backups\n", pruned)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: ~/.loopcore/backups/)")
	cmd.Flags().Int("keep", 0, "After backing up, keep only the N most recent backups")

	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore an agent from a backup file",
		Long: `Restore an agent's cognitive state, memory bank, and loop history
from a backup file. The file's checksum is verified first; existing data
for the agent is overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			header, err := backup.Restore(cmd.Context(), rt.repo, args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, map[string]any{
					"restored":   true,
					"agent":      header.AgentID,
					"loop_count": header.LoopCount,
					"created_at": header.CreatedAt,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%d loops, backed up %s)\n",
				header.AgentID, header.LoopCount, header.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}
