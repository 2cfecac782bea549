package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"lectern/internal/config"
	"lectern/internal/testsupport"
)

const testMetadata = `{"papers": {"episodes": [{"id": 1, "title": "The Universal Father"}, {"id": 2, "title": "The Nature of God"}]}}`

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMetadata(testMetadata))
	result := CheckMetadata(cfg.Paths.MetadataPath)
	if !result.Passed || result.Detail != "1 series, 2 episodes" {
		t.Fatalf("result = %+v", result)
	}

	missing := CheckMetadata(filepath.Join(t.TempDir(), "metadata.json"))
	if missing.Passed {
		t.Fatal("expected failure for missing metadata")
	}
}

func TestCheckSourceReportsDroppedEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSource("es-papers", "es", "paper_array", "",
			`[{"paper_number": 1, "title": "El Padre Universal"}, {"title": "Sin numero"}]`),
		testsupport.WithSource("es-broken", "es", "slug_object", "", `[]`),
		testsupport.WithSource("es-tree", "es", "tree", "", `{"papers": {"episodes": {}}}`),
	)

	ok := CheckSource(cfg.Sources[0])
	if !ok.Passed || !strings.Contains(ok.Detail, "1 entries, 1 dropped") {
		t.Fatalf("paper source = %+v", ok)
	}
	if broken := CheckSource(cfg.Sources[1]); broken.Passed {
		t.Fatalf("expected wrong shape to fail, got %+v", broken)
	}
	if tree := CheckSource(cfg.Sources[2]); !tree.Passed || tree.Detail != "es tree, 1 series" {
		t.Fatalf("tree source = %+v", tree)
	}

	missing := config.Source{Name: "gone", Language: "es", Path: filepath.Join(t.TempDir(), "gone.json"), Shape: "tree"}
	if result := CheckSource(missing); result.Passed {
		t.Fatal("expected failure for missing tree source")
	}
}

func TestCheckTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "es.json")
	if result := CheckTree("es", path); !result.Passed || !strings.Contains(result.Detail, "not built yet") {
		t.Fatalf("missing tree = %+v", result)
	}
	testsupport.WriteText(t, path, "{not json")
	if result := CheckTree("es", path); result.Passed {
		t.Fatal("expected failure for corrupt tree")
	}
}

func TestCheckTranslationProvider_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	result := CheckTranslationProvider(context.Background(), config.TranslationConfig{APIKey: "good-key", BaseURL: srv.URL, Model: "test-model"})
	if !result.Passed || result.Detail != "API reachable (model test-model)" {
		t.Fatalf("result = %+v", result)
	}
}

func TestCheckTranslationProvider_BadKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckTranslationProvider(context.Background(), config.TranslationConfig{APIKey: "bad-key", BaseURL: srv.URL, Model: "m"})
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if calls.Load() != 1 {
		t.Fatalf("provider calls = %d, want a single attempt", calls.Load())
	}
}

func TestCheckTranslationProvider_MissingKey(t *testing.T) {
	result := CheckTranslationProvider(context.Background(), config.TranslationConfig{})
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguages("en", "es"),
		testsupport.WithMetadata(testMetadata),
		testsupport.WithSource("es-papers", "es", "paper_array", "", `[{"paper_number": 1, "title": "El Padre"}]`),
		testsupport.WithTranslationKey(""),
	)
	results := RunAll(context.Background(), cfg, Options{})
	// 3 directories, metadata, 1 source, 2 trees
	if len(results) != 7 || Failed(results) != 0 {
		t.Fatalf("results = %+v", results)
	}
	if results[4].Name != "Source es-papers" || results[6].Name != "Tree es" {
		t.Fatalf("unexpected order: %+v", results)
	}

	withProvider := RunAll(context.Background(), cfg, Options{CheckProvider: true})
	if len(withProvider) != 8 || withProvider[7].Name != "Translation provider" || withProvider[7].Passed {
		t.Fatalf("provider check missing: %+v", withProvider)
	}
}
