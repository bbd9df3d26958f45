package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/protoloop/loopcore/internal/config"
	"github.com/protoloop/loopcore/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run loopcore as a Model Context Protocol server on stdio.

The server exposes the loop lifecycle, evolution insights, analytics,
and scenario generation as MCP tools, plus the neural tree as a
resource. Intended to be launched by an MCP client, not interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			app, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := app.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "loopcore",
				Version: version,
				Root:    root,
				App:     app,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}
