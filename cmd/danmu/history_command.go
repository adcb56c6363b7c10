package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"danmu/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage viewing history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show viewing history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := api.HistoryList(cmd.Context(), cfg, ctx.logger(false))
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No viewing history")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				progress := ""
				if entry.DurationSeconds > 0 {
					progress = fmt.Sprintf("%.0f%%", entry.PositionSeconds/entry.DurationSeconds*100)
				}
				rows = append(rows, []string{
					entry.Title,
					strconv.Itoa(entry.EpisodeIndex + 1),
					fmt.Sprintf("%.0fs", entry.PositionSeconds),
					progress,
					entry.UpdatedAt.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Title", "Episode", "Position", "Progress", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all viewing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.HistoryClear(cmd.Context(), cfg, ctx.logger(false)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Viewing history cleared")
			return nil
		},
	}
}
