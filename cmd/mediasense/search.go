package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
)

func newSearchCmd() *cobra.Command {
	var (
		owner  string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search one owner's library from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				resp, err := a.lib.Search(ctx, owner, query, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					data, err := json.MarshalIndent(resp, "", "  ")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, string(data))
					return err
				}

				_, _ = fmt.Fprintf(out, "%d result(s), mode %s", resp.Total, resp.Mode)
				if resp.FallbackReason != "" {
					_, _ = fmt.Fprintf(out, " (%s)", resp.FallbackReason)
				}
				_, _ = fmt.Fprintln(out)

				for i, r := range resp.Results {
					if resp.Mode == searcher.ModeSemantic {
						_, _ = fmt.Fprintf(out, "%2d. %.3f  %s  [%s]\n", i+1, r.FinalScore, r.OriginalName, r.ID)
					} else {
						_, _ = fmt.Fprintf(out, "%2d. %s  [%s]\n", i+1, r.OriginalName, r.ID)
					}
					if r.Description != "" {
						_, _ = fmt.Fprintf(out, "    %s\n", r.Description)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "u", "", "owner id to search as (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", searcher.DefaultLimit, "maximum results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
