package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"lectern/internal/config"
	"lectern/internal/gapfill"
	"lectern/internal/resolver"
	"lectern/internal/runlog"
	"lectern/internal/services"
	"lectern/internal/testsupport"
)

func fakeProvider(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"translation\":\"traducido\"}"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Sources: 2")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
}

func TestConfigValidateReportsBrokenSource(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Sources = append(cfg.Sources, config.Source{
			Name: "missing-es", Language: "es", Path: filepath.Join(testsupport.BaseDir(cfg), "gone.json"), Shape: "slug_object",
		})
	})

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("config validate error = %v, want ErrConfiguration", err)
	}
	requireContains(t, out, "Source missing-es")
	requireContains(t, out, "FAIL")
	requireContains(t, out, "Configuration has 1 problem(s)")
}

func TestConfigValidateChecksProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Translation.BaseURL = srv.URL
		cfg.Translation.Model = "test-model"
	})

	out, _, err := runCLI(t, []string{"--json", "config", "validate", "--check-provider"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	var report struct {
		TranslationKey bool `json:"translationKey"`
		Checks         []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
			Detail string `json:"detail"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode validate output: %v\n%s", err, out)
	}
	last := report.Checks[len(report.Checks)-1]
	if !report.TranslationKey || last.Name != "Translation provider" || !last.Passed || last.Detail != "API reachable (model test-model)" {
		t.Fatalf("report = %+v", report)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProvider(t, &calls)
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Translation.BaseURL = srv.URL
	})

	out, _, err := runCLI(t, []string{"map"}, env.configPath)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	requireContains(t, out, "Wrote mapping to")

	out, _, err = runCLI(t, []string{"consolidate"}, env.configPath)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	requireContains(t, out, "written")

	out, _, err = runCLI(t, []string{"--json", "resolve", "papers", "1", "--lang", "es"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var ep resolver.Episode
	if err := json.Unmarshal([]byte(out), &ep); err != nil {
		t.Fatalf("decode resolve output: %v\n%s", err, out)
	}
	if ep.Title != "El Padre Universal" || ep.Summary != "The father summary." || ep.AudioURL != "/audio/es/paper-1.mp3" {
		t.Fatalf("resolved episode = %+v", ep)
	}

	out, _, err = runCLI(t, []string{"--json", "fill", "--lang", "es"}, env.configPath)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	var summary gapfill.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode fill output: %v\n%s", err, out)
	}
	if summary.Translated != 2 || calls.Load() != 2 {
		t.Fatalf("translated %d with %d provider calls, want 2/2", summary.Translated, calls.Load())
	}
	tree := testsupport.LoadTree(t, env.cfg.TreePath("es"))
	if got := tree["papers"].Episodes["1"].Summary; got != "traducido" {
		t.Fatalf("es summary = %q", got)
	}

	out, _, err = runCLI(t, []string{"--json", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runlog.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 3 {
		t.Fatalf("history has %d runs, want 3", len(runs))
	}
	if runs[0].Command != "fill" || runs[0].Status != runlog.StatusSucceeded || runs[0].ID != summary.RunID {
		t.Fatalf("latest run = %+v", runs[0])
	}
}

func TestConsolidateStructuralBreakFails(t *testing.T) {
	env := setupCLITestEnv(t, nil,
		testsupport.WithSource("es-tree", "es", "tree", "",
			`{"papers": {"seriesTitle": "Los Documentos", "episodes": {"1": {"title": "El Padre"}}}}`),
	)

	_, _, err := runCLI(t, []string{"consolidate", "--lang", "es"}, env.configPath)
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("consolidate error = %v, want ErrSchemaMismatch", err)
	}
	if _, statErr := os.Stat(env.cfg.TreePath("es")); !os.IsNotExist(statErr) {
		t.Fatalf("es tree written despite validation failure: %v", statErr)
	}

	out, _, err := runCLI(t, []string{"--json", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runlog.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != runlog.StatusInvalid || runs[0].Language != "es" {
		t.Fatalf("history = %+v", runs)
	}
}

func TestFillRequiresTranslationKey(t *testing.T) {
	t.Setenv("LECTERN_TRANSLATION_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	env := setupCLITestEnv(t, nil, testsupport.WithTranslationKey(""))

	if _, _, err := runCLI(t, []string{"consolidate"}, env.configPath); err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	_, _, err := runCLI(t, []string{"fill", "--lang", "es"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("fill error = %v, want ErrConfiguration", err)
	}
	requireContains(t, err.Error(), "translation.api_key is required")

	out, _, err := runCLI(t, []string{"--json", "fill", "--lang", "es", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dry-run fill: %v", err)
	}
	var summary gapfill.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode fill output: %v", err)
	}
	if !summary.DryRun || summary.Gaps != 2 || len(summary.GapList) != 2 {
		t.Fatalf("dry-run summary = %+v", summary)
	}
}

func TestResolveUnknownEpisode(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	_, _, err := runCLI(t, []string{"resolve", "papers", "99"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("resolve error = %v, want ErrNotFound", err)
	}
}

func TestResolveTableOutput(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	if _, _, err := runCLI(t, []string{"consolidate"}, env.configPath); err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	out, _, err := runCLI(t, []string{"resolve", "papers", "1", "--lang", "es"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "El Padre Universal")
	requireContains(t, out, "Base fallback")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestMapDryRunLeavesNoArtifact(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"map", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	requireContains(t, out, "Dry run: mapping not written")
	if _, err := os.Stat(env.cfg.Paths.MappingPath); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote the mapping artifact: %v", err)
	}
}
