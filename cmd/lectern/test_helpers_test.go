package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lectern/internal/config"
	"lectern/internal/testsupport"
)

const cliMetadata = `{
  "papers": {
    "seriesTitle": "The Papers",
    "episodes": [
      {"id": 1, "paperNumber": 1, "title": "The Universal Father", "audioUrl": "/audio/paper-1.mp3"},
      {"id": 2, "paperNumber": 2, "title": "The Nature of God"}
    ]
  }
}`

const cliEnglishSource = `[
  {"paper_number": 1, "title": "The Universal Father", "longForm": "The father summary."},
  {"paper_number": 2, "title": "The Nature of God", "longForm": "God summary."}
]`

const cliSpanishTitles = `[
  {"paper_number": 1, "title": "El Padre Universal"}
]`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, mutate func(*config.Config), opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	opts = append([]testsupport.ConfigOption{
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(cliMetadata),
		testsupport.WithSource("papers-en", "en", "paper_array", "", cliEnglishSource),
		testsupport.WithSource("papers-es", "es", "paper_array", "titles", cliSpanishTitles),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	if mutate != nil {
		mutate(cfg)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "lectern.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
