package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"danmu/internal/api"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var episodeFlag int
	var countFlag int
	var keyFlag string
	var jsonFlag bool
	var previewFlag int

	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve the comment track for an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := api.ResolveRequest{
				Config:       cfg,
				Title:        args[0],
				EpisodeIndex: episodeFlag,
				EpisodeCount: countFlag,
				VideoKey:     keyFlag,
			}
			result, err := api.Resolve(cmd.Context(), req, ctx.logger(false))
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if !result.Resolved {
				fmt.Fprintln(out, "No danmaku source resolved; comment track is empty")
				return nil
			}
			fmt.Fprintf(out, "Source:   %d\n", result.SourceID)
			fmt.Fprintf(out, "Episode:  %s (id %d)\n", result.EpisodeTitle, result.EpisodeID)
			fmt.Fprintf(out, "Comments: %d", len(result.Comments))
			if result.FromCache {
				fmt.Fprint(out, " (cached)")
			}
			fmt.Fprintln(out)
			if result.SyncTo > 0 {
				fmt.Fprintf(out, "Resume:   %.1fs\n", result.SyncTo)
			}

			if previewFlag > 0 && len(result.Comments) > 0 {
				limit := min(previewFlag, len(result.Comments))
				rows := make([][]string, 0, limit)
				for _, comment := range result.Comments[:limit] {
					rows = append(rows, []string{
						fmt.Sprintf("%.1f", comment.Time),
						strconv.Itoa(comment.Mode),
						comment.Color,
						comment.Text,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Time", "Mode", "Color", "Text"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&episodeFlag, "episode", "e", 0, "Zero-based episode index")
	cmd.Flags().IntVar(&countFlag, "count", 0, "Known episode count of the local series, 0 when unknown")
	cmd.Flags().StringVar(&keyFlag, "key", "", "Video key for resume position lookup")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of text")
	cmd.Flags().IntVar(&previewFlag, "preview", 0, "Show the first N comments")
	return cmd
}
