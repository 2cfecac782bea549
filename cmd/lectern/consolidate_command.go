package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/consolidate"
)

func newConsolidateCommand(ctx *commandContext) *cobra.Command {
	var languages []string
	var dryRun bool
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Build and validate the per-language content trees",
		Long: `Consolidate walks the canonical metadata, pulls localized fields from the
configured sources and writes one content tree per language. Structural
validation errors abort the write for that language and exit non-zero; the
previous file and its backups are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			languages = normalizeLanguages(languages)
			var summary consolidate.Summary
			runErr := ctx.recordRun(cmd, "consolidate", languageLabel(languages), func(runCtx context.Context) (any, error) {
				var err error
				summary, err = consolidate.NewRunner(cfg, logger).Run(runCtx, consolidate.Options{
					Languages:    languages,
					DryRun:       dryRun,
					ValidateOnly: validateOnly,
				})
				return summary, err
			})
			// Per-language results are reported even when some languages failed.
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printConsolidateSummary(cmd, summary)
			}
			return runErr
		},
	}

	cmd.Flags().StringArrayVar(&languages, "lang", nil, "Language to consolidate (repeatable, default all supported)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build and validate without writing")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Validate the existing trees against metadata")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "validate-only")
	return cmd
}

func printConsolidateSummary(cmd *cobra.Command, summary consolidate.Summary) {
	out := cmd.OutOrStdout()
	if len(summary.Languages) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Languages))
	for _, lang := range summary.Languages {
		rows = append(rows, []string{
			lang.Language,
			strconv.Itoa(lang.Episodes),
			strconv.Itoa(len(lang.Report.Errors)),
			strconv.Itoa(len(lang.Report.Warnings)),
			consolidateOutcome(summary, lang),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Language", "Episodes", "Errors", "Warnings", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	for _, lang := range summary.Languages {
		for _, issue := range lang.Report.Errors {
			fmt.Fprintf(out, "%s: %s\n", lang.Language, issue.String())
		}
		if lang.Backup != "" {
			fmt.Fprintf(out, "%s: backup %s\n", lang.Language, lang.Backup)
		}
	}
}

func consolidateOutcome(summary consolidate.Summary, lang consolidate.LanguageResult) string {
	switch {
	case lang.Error != "":
		return "failed"
	case summary.ValidateOnly:
		return "valid"
	case summary.DryRun:
		return "dry run"
	case lang.Unchanged:
		return "unchanged"
	case lang.Written:
		return "written"
	default:
		return "-"
	}
}

func languageLabel(languages []string) string {
	if len(languages) == 1 {
		return languages[0]
	}
	return ""
}
