package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize loopcore tracking in current directory",
		Long: `Initialize loopcore tracking in the project root.

This command creates the .loopcore/ directory and the SQLite store that
holds cognitive states, memory banks, and archived loops. When --agent
is given the agent's starting cognitive profile is created as well.

Examples:
  loopcore init                  # Initialize the store only
  loopcore init --agent p1       # Initialize and seed agent p1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			agentID, _ := cmd.Flags().GetString("agent")
			jsonOut, _ := cmd.Flags().GetBool("json")

			coreDir := filepath.Join(root, ".loopcore")
			if err := os.MkdirAll(coreDir, 0o755); err != nil {
				return fmt.Errorf("create .loopcore directory: %w", err)
			}

			manifestPath := filepath.Join(coreDir, "manifest.yaml")
			if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
				manifest := `# Loopcore Manifest
version: "1.0"
created: %s

# Agent cognitive states and archived loops live in loopcore.db
# Run 'loopcore status --agent <id>' to inspect an agent
# Run 'loopcore start --agent <id>' to begin a loop
`
				content := fmt.Sprintf(manifest, time.Now().Format(time.RFC3339))
				if err := os.WriteFile(manifestPath, []byte(content), 0o644); err != nil {
					return fmt.Errorf("create manifest.yaml: %w", err)
				}
			}

			// Opening the store creates loopcore.db and its schema.
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			result := map[string]any{
				"status": "initialized",
				"path":   coreDir,
			}

			if agentID != "" {
				state, err := rt.loadOrInitState(cmd.Context(), agentID)
				if err != nil {
					return err
				}
				result["agent"] = agentID
				result["evolution_score"] = state.EvolutionScore
			}

			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(result)
			} else {
				fmt.Printf("Created %s\n", coreDir)
				if agentID != "" {
					fmt.Printf("Seeded agent %s\n", agentID)
				}
			}
			return nil
		},
	}

	return cmd
}
