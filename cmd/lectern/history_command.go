package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var command string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runlog.Open(cfg.RunLogPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), command, limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if runs == nil {
					runs = []runlog.Run{}
				}
				return writeJSON(cmd, runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				lang := run.Language
				if lang == "" {
					lang = "-"
				}
				rows = append(rows, []string{
					formatTimestamp(run.StartedAt),
					run.Command,
					lang,
					string(run.Status),
					formatDuration(run.Duration()),
					run.ID,
				})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Started", "Command", "Language", "Status", "Duration", "Run ID"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&command, "command", "", "Only show runs of this command (map, consolidate, fill)")
	return cmd
}
