package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/gapfill"
	"lectern/internal/language"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/llm"
)

func newFillCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var testMode bool
	var categories []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Translate missing or untranslated fields of a language",
		Long: `Fill scans the content tree of --lang against the base language and
translates every empty or untranslated field one at a time. Failed fields keep
their previous value and are retried by the next run. Fields that already
hold a translation are never sent to the provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			code := language.MustNormalize(lang)

			var translator gapfill.Translator
			if !dryRun {
				if err := cfg.RequireTranslationKey(); err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "fill", "", err)
				}
				tc := cfg.GetTranslation()
				client := llm.NewClient(llm.Config{
					APIKey:         tc.APIKey,
					BaseURL:        tc.BaseURL,
					Model:          tc.Model,
					Referer:        tc.Referer,
					Title:          tc.Title,
					TimeoutSeconds: tc.TimeoutSeconds,
				})
				logger.Info("translation provider configured",
					logging.String("model", client.Model()),
					logging.String("endpoint", tc.BaseURL),
					logging.Language(code),
				)
				translator = client
			}

			var summary gapfill.Summary
			runErr := ctx.recordRun(cmd, "fill", code, func(runCtx context.Context) (any, error) {
				var err error
				summary, err = gapfill.New(cfg, translator, logger).Run(runCtx, gapfill.Options{
					Language:   code,
					Test:       testMode,
					Categories: categories,
					DryRun:     dryRun,
				})
				return summary, err
			})
			if summary.RunID == "" {
				return runErr
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printFillSummary(cmd, summary)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Target language to fill")
	cmd.Flags().BoolVar(&testMode, "test", false, "Translate at most pipeline.test_sample_size fields")
	cmd.Flags().StringArrayVar(&categories, "category", nil, "Only fill series whose id starts with this prefix (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List gaps without calling the provider")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func printFillSummary(cmd *cobra.Command, summary gapfill.Summary) {
	out := cmd.OutOrStdout()

	if summary.DryRun && len(summary.GapList) > 0 {
		rows := make([][]string, 0, len(summary.GapList))
		for _, gap := range summary.GapList {
			rows = append(rows, []string{gap.SeriesID, gap.EpisodeID, string(gap.Field), gap.Reason, strconv.Itoa(gap.Characters)})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"Series", "Episode", "Field", "Reason", "Chars"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	if len(summary.Failures) > 0 {
		rows := make([][]string, 0, len(summary.Failures))
		for _, gap := range summary.Failures {
			rows = append(rows, []string{gap.SeriesID, gap.EpisodeID, string(gap.Field), gap.Error})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Series", "Episode", "Field", "Error"}, rows, nil))
	}

	rows := [][]string{
		{"Run", summary.RunID},
		{"Language", summary.Language},
		{"Scanned", strconv.Itoa(summary.Scanned)},
		{"Gaps", strconv.Itoa(summary.Gaps)},
		{"Translated", strconv.Itoa(summary.Translated)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Deferred", strconv.Itoa(summary.Deferred)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Characters", strconv.Itoa(summary.Characters)},
		{"Estimated cost", formatCost(summary.EstimatedCost)},
		{"Written", yesNo(summary.Written)},
	}
	if summary.Backup != "" {
		rows = append(rows, []string{"Backup", summary.Backup})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Fill", strings.ToUpper(summary.Language)}, rows, nil))
	if summary.DryRun {
		fmt.Fprintln(out, "Dry run: no provider calls, tree not written")
	}
}
