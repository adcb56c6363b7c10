package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"danmu/internal/api"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag int64
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "episodes <title>",
		Short: "List the remote episodes of the resolved source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entry, err := api.Episodes(cmd.Context(), api.EpisodesRequest{
				Config:   cfg,
				Title:    args[0],
				SourceID: sourceFlag,
			}, ctx.logger(false))
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, entry)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source %d: %s (%s)\n", entry.SourceID, entry.Title, entry.ContentType)
			rows := make([][]string, 0, len(entry.Episodes))
			for i, episode := range entry.Episodes {
				rows = append(rows, []string{
					strconv.Itoa(i),
					strconv.FormatInt(episode.EpisodeID, 10),
					episode.EpisodeTitle,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Index", "ID", "Title"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&sourceFlag, "source", 0, "Source ID to list; resolves the title when omitted")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}
