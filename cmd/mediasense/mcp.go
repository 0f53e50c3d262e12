package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app) error {
				logging.Info().Str("version", version).Msg("MCP server ready, listening on stdio")
				err := mcp.NewServer(a.lib, version).Serve(ctx)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
}
