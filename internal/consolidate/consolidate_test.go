package consolidate_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"lectern/internal/consolidate"
	"lectern/internal/content"
	"lectern/internal/legacymap"
	"lectern/internal/logging"
	"lectern/internal/schema"
	"lectern/internal/services"
	"lectern/internal/testsupport"
)

const twoEpisodeMetadata = `{
  "papers": {
    "seriesTitle": "The Papers",
    "episodes": [
      {"id": 1, "paperNumber": 1, "title": "The Universal Father", "logline": "Meta logline 1"},
      {"id": 2, "paperNumber": 2, "title": "The Nature of God"}
    ]
  }
}`

func mustMetadata(t *testing.T, body string) *content.Metadata {
	t.Helper()
	md, err := content.ParseMetadata([]byte(body))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	return md
}

func legacySource(name, lang, kind string, entries ...schema.Entry) legacymap.Source {
	result := schema.Result{Entries: map[string]schema.Entry{}}
	for _, e := range entries {
		result.Entries[e.Key] = e
	}
	return legacymap.Source{Name: name, Language: lang, Kind: kind, Entries: result}
}

func TestBuildFieldPrecedence(t *testing.T) {
	md := mustMetadata(t, twoEpisodeMetadata)
	mapping := legacymap.Result{Mapping: map[string]legacymap.Mapping{
		"paper_1": {SeriesID: "papers", EpisodeID: "1", Confidence: legacymap.ConfidenceHigh},
		"paper_2": {SeriesID: "papers", EpisodeID: "2", Confidence: legacymap.ConfidenceHigh},
	}}

	treeSource := consolidate.TreeSource{Name: "es-tree", Tree: content.Tree{
		"papers": {Episodes: map[string]*content.Overlay{
			"1": {Title: "El Padre Universal"},
			"2": {},
		}},
	}}
	titles := legacySource("es-titles", "es", "titles",
		schema.Entry{Key: "paper_1", Title: "Ignored title", LongForm: "ignored summary"},
		schema.Entry{Key: "paper_2", Title: "La Naturaleza de Dios", LongForm: "ignored summary"},
	)
	summaries := legacySource("es-summaries", "es", "summaries",
		schema.Entry{Key: "paper_1", Title: "ignored", ShortForm: "Tarjeta 1", LongForm: "Resumen 1"},
	)
	otherLang := legacySource("fr-summaries", "fr", "",
		schema.Entry{Key: "paper_2", LongForm: "Résumé"},
	)
	existing := content.Tree{"papers": {
		SeriesTitle: "Los Documentos",
		Episodes: map[string]*content.Overlay{
			"2": {Summary: "Resumen existente 2", EpisodeCard: "Tarjeta existente 2"},
		},
	}}

	tree, report := consolidate.Build(consolidate.Input{
		Language:    "es",
		Metadata:    md,
		Existing:    existing,
		TreeSources: []consolidate.TreeSource{treeSource},
		Legacy:      []legacymap.Source{titles, summaries, otherLang},
		Mapping:     mapping,
	})
	if !report.OK() {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	series := tree["papers"]
	if series.SeriesTitle != "Los Documentos" {
		t.Fatalf("series title = %q", series.SeriesTitle)
	}
	one := series.Episodes["1"]
	want1 := content.Overlay{Title: "El Padre Universal", Logline: "Meta logline 1", EpisodeCard: "Tarjeta 1", Summary: "Resumen 1"}
	if *one != want1 {
		t.Fatalf("episode 1 = %+v, want %+v", *one, want1)
	}
	two := series.Episodes["2"]
	want2 := content.Overlay{Title: "La Naturaleza de Dios", EpisodeCard: "Tarjeta existente 2", Summary: "Resumen existente 2"}
	if *two != want2 {
		t.Fatalf("episode 2 = %+v, want %+v", *two, want2)
	}
}

func TestBuildReportsDriftAndUnmapped(t *testing.T) {
	md := mustMetadata(t, twoEpisodeMetadata)
	drifted := consolidate.TreeSource{Name: "es-tree", Tree: content.Tree{
		"papers": {Episodes: map[string]*content.Overlay{
			"1": {Title: "Uno"}, "2": {Title: "Dos"}, "3": {Title: "Tres"},
		}},
	}}
	legacy := legacySource("es-topics", "es", "", schema.Entry{Key: "topic/unknown-thing", Title: "Algo"})

	_, report := consolidate.Build(consolidate.Input{
		Language:    "es",
		Metadata:    md,
		TreeSources: []consolidate.TreeSource{drifted},
		Legacy:      []legacymap.Source{legacy},
		Mapping:     legacymap.Result{},
	})
	if report.OK() {
		t.Fatal("expected drift error")
	}
	if report.Errors[0].Code != consolidate.CodeSourceDrift || !strings.Contains(report.Errors[0].Message, "declares 3 episodes, metadata has 2") {
		t.Fatalf("unexpected error %+v", report.Errors[0])
	}
	if !errors.Is(report.Err(), services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch marker, got %v", report.Err())
	}
	var unmapped bool
	for _, w := range report.Warnings {
		if w.Code == consolidate.CodeUnmappedKey && strings.Contains(w.Message, "topic/unknown-thing") {
			unmapped = true
		}
	}
	if !unmapped {
		t.Fatalf("expected unmapped warning, got %v", report.Warnings)
	}
}

func TestValidate(t *testing.T) {
	md := mustMetadata(t, twoEpisodeMetadata)
	tests := []struct {
		name     string
		tree     content.Tree
		errCodes []string
		warnings int
	}{
		{
			name:     "series missing",
			tree:     content.Tree{},
			errCodes: []string{consolidate.CodeSeriesMissing},
		},
		{
			name: "episode count mismatch",
			tree: content.Tree{"papers": {Episodes: map[string]*content.Overlay{
				"1": {Title: "A", Summary: "s", EpisodeCard: "c"},
			}}},
			errCodes: []string{consolidate.CodeEpisodeMismatch},
		},
		{
			name: "empty title",
			tree: content.Tree{"papers": {Episodes: map[string]*content.Overlay{
				"1": {Title: "A", Summary: "s", EpisodeCard: "c"},
				"2": {Title: " ", Summary: "s", EpisodeCard: "c"},
			}}},
			errCodes: []string{consolidate.CodeEmptyTitle},
		},
		{
			name: "warnings only",
			tree: content.Tree{"papers": {Episodes: map[string]*content.Overlay{
				"1": {Title: "A"},
				"2": {Title: "B", Summary: "s", EpisodeCard: "c"},
			}}},
			warnings: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := consolidate.Validate("es", md, tt.tree)
			if len(report.Errors) != len(tt.errCodes) {
				t.Fatalf("errors = %v, want codes %v", report.Errors, tt.errCodes)
			}
			for i, code := range tt.errCodes {
				if report.Errors[i].Code != code {
					t.Fatalf("error %d code = %s, want %s", i, report.Errors[i].Code, code)
				}
			}
			if len(report.Warnings) != tt.warnings {
				t.Fatalf("warnings = %v, want %d", report.Warnings, tt.warnings)
			}
		})
	}
}

func TestRunWritesBacksUpAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(twoEpisodeMetadata),
		testsupport.WithSource("es-papers", "es", "paper_array", "", `[
			{"paper_number": 1, "title": "El Padre Universal", "shortForm": "Tarjeta", "longForm": "Resumen"},
			{"paper_number": 2, "title": "La Naturaleza de Dios"}
		]`),
	)
	runner := consolidate.NewRunner(cfg, logging.NewNop())
	clock := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	runner.SetClock(func() time.Time { return clock })

	summary, err := runner.Run(context.Background(), consolidate.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Languages) != 2 || !summary.Languages[0].Written || !summary.Languages[1].Written {
		t.Fatalf("summary = %+v", summary)
	}
	es := testsupport.LoadTree(t, cfg.TreePath("es"))
	if es["papers"].Episodes["1"].Summary != "Resumen" || es["papers"].Episodes["2"].Title != "La Naturaleza de Dios" {
		t.Fatalf("es tree = %+v", es["papers"].Episodes)
	}
	en := testsupport.LoadTree(t, cfg.TreePath("en"))
	if en["papers"].Episodes["1"].Title != "The Universal Father" {
		t.Fatalf("en tree should fall back to metadata, got %+v", en["papers"].Episodes["1"])
	}
	before := testsupport.ReadText(t, cfg.TreePath("es"))

	again, err := runner.Run(context.Background(), consolidate.Options{Languages: []string{"es"}})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !again.Languages[0].Unchanged || again.Languages[0].Written {
		t.Fatalf("expected unchanged rerun, got %+v", again.Languages[0])
	}
	if testsupport.ReadText(t, cfg.TreePath("es")) != before {
		t.Fatal("rerun changed file bytes")
	}
	if backups := testsupport.Backups(t, cfg.TreePath("es")); len(backups) != 0 {
		t.Fatalf("unchanged rerun should not back up, found %v", backups)
	}

	manual := es.Clone()
	manual["papers"].Episodes["2"].Summary = "Resumen manual"
	manual["papers"].Episodes["2"].Title = ""
	testsupport.WriteTree(t, cfg.TreePath("es"), manual)
	third, err := runner.Run(context.Background(), consolidate.Options{Languages: []string{"es"}})
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.Languages[0].Backup != cfg.TreePath("es")+".backup-20260506T070809.000Z" {
		t.Fatalf("backup = %q", third.Languages[0].Backup)
	}
	merged := testsupport.LoadTree(t, cfg.TreePath("es"))
	if merged["papers"].Episodes["2"].Summary != "Resumen manual" {
		t.Fatal("existing manual content should be preserved")
	}
	if merged["papers"].Episodes["2"].Title != "La Naturaleza de Dios" {
		t.Fatal("source title should fill the blank title")
	}
}

func TestRunStructuralBreakLeavesFileUntouched(t *testing.T) {
	var episodes strings.Builder
	for i := 1; i <= 197; i++ {
		if i > 1 {
			episodes.WriteString(",")
		}
		episodes.WriteString(`"` + itoa(i) + `": {"title": "T"}`)
	}
	var metaEpisodes strings.Builder
	for i := 1; i <= 190; i++ {
		if i > 1 {
			metaEpisodes.WriteString(",")
		}
		metaEpisodes.WriteString(`{"id": ` + itoa(i) + `, "title": "Title ` + itoa(i) + `"}`)
	}

	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(`{"life": {"episodes": [`+metaEpisodes.String()+`]}}`),
		testsupport.WithSource("es-life", "es", "tree", "", `{"life": {"episodes": {`+episodes.String()+`}}}`),
	)
	previous := content.Tree{"old": {Episodes: map[string]*content.Overlay{}}}
	testsupport.WriteTree(t, cfg.TreePath("es"), previous)
	before := testsupport.ReadText(t, cfg.TreePath("es"))

	summary, err := consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(), consolidate.Options{Languages: []string{"es"}})
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	result := summary.Languages[0]
	if result.Written || result.Report.OK() {
		t.Fatalf("expected failed language, got %+v", result)
	}
	if !strings.Contains(result.Report.Errors[0].Message, "declares 197 episodes, metadata has 190") {
		t.Fatalf("first error = %+v", result.Report.Errors[0])
	}
	if testsupport.ReadText(t, cfg.TreePath("es")) != before {
		t.Fatal("previous tree must stay untouched")
	}
	if backups := testsupport.Backups(t, cfg.TreePath("es")); len(backups) != 0 {
		t.Fatalf("no backup expected, found %v", backups)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en"),
		testsupport.WithMetadata(twoEpisodeMetadata),
	)
	summary, err := consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(), consolidate.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Languages[0].Written || summary.Languages[0].Episodes != 2 {
		t.Fatalf("result = %+v", summary.Languages[0])
	}
	if _, err := os.Stat(cfg.TreePath("en")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote %s", cfg.TreePath("en"))
	}
}

func TestRunWarnsAboutDroppedLegacyEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(twoEpisodeMetadata),
		testsupport.WithSource("es-papers", "es", "paper_array", "", `[
			{"paper_number": 1, "title": "El Padre Universal"},
			{"title": "Sin numero"}
		]`),
	)
	summary, err := consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(),
		consolidate.Options{Languages: []string{"es"}, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var dropped []consolidate.Issue
	for _, issue := range summary.Languages[0].Report.Warnings {
		if issue.Code == consolidate.CodeEntryDropped {
			dropped = append(dropped, issue)
		}
	}
	if len(dropped) != 1 || dropped[0].Source != "es-papers" || !strings.HasPrefix(dropped[0].Message, "[1]: ") {
		t.Fatalf("dropped warnings = %+v", dropped)
	}
}

func TestRunValidateOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(twoEpisodeMetadata),
	)
	testsupport.WriteTree(t, cfg.TreePath("en"), content.Tree{"papers": {Episodes: map[string]*content.Overlay{
		"1": {Title: "A", Summary: "s", EpisodeCard: "c"},
		"2": {Title: "B", Summary: "s", EpisodeCard: "c"},
	}}})

	summary, err := consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(), consolidate.Options{ValidateOnly: true})
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected missing es tree to fail, got %v", err)
	}
	if !summary.Languages[0].Report.OK() {
		t.Fatalf("en should validate, got %v", summary.Languages[0].Report.Errors)
	}
	if summary.Languages[1].Report.Errors[0].Code != consolidate.CodeTreeMissing {
		t.Fatalf("es errors = %v", summary.Languages[1].Report.Errors)
	}
}

func TestRunFailsFastWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en"),
		testsupport.WithMetadata(twoEpisodeMetadata),
	)
	lock, err := content.Lock(cfg.TreePath("en"))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	_, err = consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(), consolidate.Options{})
	if !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunRejectsUnsupportedLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMetadata(twoEpisodeMetadata))
	_, err := consolidate.NewRunner(cfg, logging.NewNop()).Run(context.Background(), consolidate.Options{Languages: []string{"de"}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
