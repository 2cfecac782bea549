package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/resolver"
	"lectern/internal/services"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "resolve <seriesId> <episodeId>",
		Short: "Show the episode record served for a language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			r, err := resolver.Load(cfg)
			if err != nil {
				return err
			}
			seriesID, episodeID := args[0], args[1]
			ep, ok := r.Resolve(episodeID, seriesID, lang)
			if !ok {
				return services.Wrap(services.ErrNotFound, "cli", "resolve",
					fmt.Sprintf("episode %s/%s", seriesID, episodeID), nil)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ep)
			}
			printEpisode(cmd, ep)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Language to resolve (default base language)")
	return cmd
}

func printEpisode(cmd *cobra.Command, ep resolver.Episode) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Series", ep.SeriesID + " (" + ep.SeriesTitle + ")"},
		{"Episode", ep.EpisodeID},
		{"Language", ep.Language},
	}
	if ep.PaperNumber > 0 {
		rows = append(rows, []string{"Paper", strconv.Itoa(ep.PaperNumber)})
	}
	for _, field := range []struct{ name, value string }{
		{"Title", ep.Title},
		{"Logline", ep.Logline},
		{"Episode card", ep.EpisodeCard},
		{"Summary", ep.Summary},
		{"Audio", ep.AudioURL},
		{"PDF", ep.PDFURL},
		{"Transcript", ep.TranscriptURL},
		{"Image", ep.ImageURL},
		{"Source", ep.SourceURL},
	} {
		if field.value != "" {
			rows = append(rows, []string{field.name, field.value})
		}
	}
	if len(ep.Fallbacks) > 0 {
		names := make([]string, 0, len(ep.Fallbacks))
		for _, f := range ep.Fallbacks {
			names = append(names, string(f))
		}
		rows = append(rows, []string{"Base fallback", strings.Join(names, ", ")})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
}
