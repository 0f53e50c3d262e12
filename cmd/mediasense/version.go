package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "MediaSense\n")
			_, _ = fmt.Fprintf(out, "Version: %s\n", version)
			_, _ = fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			_, _ = fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			_, err := fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			return err
		},
	}
}
