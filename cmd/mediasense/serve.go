package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app) error {
				srv := api.NewServer(a.lib, api.Config{
					Addr:            a.cfg.Server.Addr(),
					CORSOrigins:     a.cfg.Server.CORSOrigins,
					UploadDir:       a.files.Root(),
					ReadTimeout:     a.cfg.Server.ReadTimeout,
					WriteTimeout:    a.cfg.Server.WriteTimeout,
					ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				})
				return srv.ListenAndServe(ctx)
			})
		},
	}
}
