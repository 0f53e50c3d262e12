package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

func newReprocessCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Rerun analysis and embedding for every item in a status",
		Long: `Rerun analysis and embedding for every media item in the given status.

Items that failed analysis are in status "error". Reprocessing "ready"
items re-embeds the whole library, which is needed after switching
embedding providers or models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app) error {
				stats, err := a.lib.Reprocess(ctx, types.Status(status))
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "processed: %d\nready: %d\nfailed: %d\ndegraded: %d\nduration: %s\n",
					stats.Processed, stats.Ready, stats.Failed, stats.Degraded, stats.Duration.Round(time.Millisecond))
				for _, msg := range stats.ErrorMessages {
					_, _ = fmt.Fprintf(out, "  error: %s\n", msg)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(types.StatusError), "status to reprocess (uploading, analyzing, ready, error)")
	return cmd
}
