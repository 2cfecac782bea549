package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/legacymap"
)

const unmappedDisplayLimit = 20

func newMapCommand(ctx *commandContext) *cobra.Command {
	var categories []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map legacy content keys to canonical episodes",
		Long: `Map reads every configured legacy source, matches its keys against the
canonical episode titles and writes the mapping artifact with the keys that
still need manual review. Unmapped keys never fail the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var summary legacymap.RunSummary
			err = ctx.recordRun(cmd, "map", "", func(runCtx context.Context) (any, error) {
				var runErr error
				summary, _, runErr = legacymap.Run(runCtx, cfg, logger, legacymap.RunOptions{
					Categories: categories,
					DryRun:     dryRun,
				})
				return summary, runErr
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			printMapSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&categories, "category", nil, "Only map keys starting with this prefix (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the mapping without writing the artifact")
	return cmd
}

func printMapSummary(cmd *cobra.Command, summary legacymap.RunSummary) {
	out := cmd.OutOrStdout()

	names := make([]string, 0, len(summary.Stats.BySource))
	for name := range summary.Stats.BySource {
		names = append(names, name)
	}
	sortStrings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		stats := summary.Stats.BySource[name]
		rows = append(rows, []string{name, strconv.Itoa(stats.Mapped), strconv.Itoa(stats.Unmapped)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out, []string{"Source", "Mapped", "Unmapped"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
	}

	s := summary.Stats
	fmt.Fprintf(out, "Keys: %d  high: %d  medium: %d  unmapped: %d  ambiguous: %d\n", s.Total, s.High, s.Medium, s.Unmapped, s.Ambiguous)
	for _, msg := range summary.SourceErrors {
		fmt.Fprintf(out, "Skipped source: %s\n", msg)
	}
	for _, d := range summary.Dropped {
		fmt.Fprintf(out, "Dropped entry: %s\n", d.String())
	}

	if len(summary.Unmapped) > 0 {
		rows = rows[:0]
		for i, u := range summary.Unmapped {
			if i == unmappedDisplayLimit {
				break
			}
			rows = append(rows, []string{u.Key, u.CleanedKey, u.DeclaredTitle, u.Source})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Unmapped key", "Cleaned", "Declared title", "Source"}, rows, nil))
		if hidden := len(summary.Unmapped) - unmappedDisplayLimit; hidden > 0 {
			fmt.Fprintf(out, "... %d more unmapped key(s) in the artifact\n", hidden)
		}
	}

	if summary.Written {
		fmt.Fprintf(out, "Wrote mapping to %s\n", summary.Path)
	} else {
		fmt.Fprintln(out, "Dry run: mapping not written")
	}
}
