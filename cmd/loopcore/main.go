package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Populated by -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "loopcore",
		Short: "Loopcore - cognitive evolution engine for AI agents",
		Long: `loopcore manages the cognitive evolution of AI agents across loop
iterations.

It tracks skill modules, records decisions and their cognitive impact,
archives completed loops, and serves the whole lifecycle over a CLI and
an MCP server.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("agent", "", "Agent ID")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newStatusCmd(),
		newTreeCmd(),
		newInsightsCmd(),
		newAnalyticsCmd(),
		newCompareCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		// Loop lifecycle commands
		newStartCmd(),
		newTickCmd(),
		newDecideCmd(),
		newCompleteCmd(),
		newBreakCheckCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
