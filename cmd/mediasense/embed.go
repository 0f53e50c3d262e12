package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
)

func newEmbedCmd() *cobra.Command {
	var compare string

	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Embed text with the configured provider and report the vector",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				vec, err := embedder.Vector(ctx, a.embedder, text)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "provider: %s\nmodel: %s\ndimension: %d\nnorm: %.4f\n",
					a.embedder.Provider(), a.embedder.Model(), len(vec), vecmath.Magnitude(vec))
				_, _ = fmt.Fprintf(out, "head: %v\n", head(vec, 5))

				if compare == "" {
					return nil
				}
				other, err := embedder.Vector(ctx, a.embedder, compare)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "cosine(%q): %.4f\n", compare, vecmath.CosineSimilarity(vec, other))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&compare, "compare", "", "second text to compute cosine similarity against")
	return cmd
}

func head(v []float64, n int) []float64 {
	if len(v) < n {
		return v
	}
	return v[:n]
}
