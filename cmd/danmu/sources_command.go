package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"danmu/internal/api"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect and switch danmaku sources",
	}

	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesSwitchCommand(ctx))

	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var countFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list <title>",
		Short: "Rank the available danmaku sources for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			options, err := api.ListSources(cmd.Context(), api.ListSourcesRequest{
				Config:       cfg,
				Title:        args[0],
				EpisodeCount: countFlag,
			}, ctx.logger(false))
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, options)
			}

			out := cmd.OutOrStdout()
			if len(options) == 0 {
				fmt.Fprintln(out, "No sources found")
				return nil
			}
			rows := make([][]string, 0, len(options))
			for _, option := range options {
				marker := ""
				if option.Active {
					marker = "active"
				} else if option.Recommended {
					marker = "recommended"
				}
				rows = append(rows, []string{
					strconv.FormatInt(option.Candidate.AnimeID, 10),
					option.Candidate.AnimeTitle,
					option.Candidate.TypeDescription,
					strconv.Itoa(option.Candidate.EpisodeCount),
					strconv.Itoa(option.Score),
					marker,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Title", "Type", "Episodes", "Score", ""},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&countFlag, "count", 0, "Known episode count of the local series, 0 when unknown")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newSourcesSwitchCommand(ctx *commandContext) *cobra.Command {
	var episodeFlag int
	var countFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "switch <title> <source-id>",
		Short: "Activate a source and re-resolve the current episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sourceID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse source id %q: %w", args[1], err)
			}
			resolution, err := api.SwitchSource(cmd.Context(), api.SwitchSourceRequest{
				Config:       cfg,
				Title:        args[0],
				SourceID:     sourceID,
				EpisodeIndex: episodeFlag,
				EpisodeCount: countFlag,
			}, ctx.logger(false))
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, resolution)
			}

			out := cmd.OutOrStdout()
			if !resolution.Resolved {
				fmt.Fprintf(out, "Switched to source %d but no episode resolved\n", sourceID)
				return nil
			}
			fmt.Fprintf(out, "Switched to source %d: %s (%d comments)\n",
				resolution.SourceID, resolution.EpisodeTitle, len(resolution.Comments))
			return nil
		},
	}

	cmd.Flags().IntVarP(&episodeFlag, "episode", "e", 0, "Zero-based episode index")
	cmd.Flags().IntVar(&countFlag, "count", 0, "Known episode count of the local series, 0 when unknown")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of text")
	return cmd
}
