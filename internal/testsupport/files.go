package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/content"
)

// WriteText writes body to path, creating parent directories.
func WriteText(t testing.TB, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadText returns the content of path or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// WriteTree encodes tree to path the way the pipeline does.
func WriteTree(t testing.TB, path string, tree content.Tree) {
	t.Helper()

	data, err := content.EncodeTree(tree)
	if err != nil {
		t.Fatalf("encode tree: %v", err)
	}
	WriteText(t, path, string(data))
}

// LoadTree reads the tree at path and fails the test if it is missing.
func LoadTree(t testing.TB, path string) content.Tree {
	t.Helper()

	tree, exists, err := content.LoadTree(path)
	if err != nil {
		t.Fatalf("load tree %s: %v", path, err)
	}
	if !exists {
		t.Fatalf("tree %s does not exist", path)
	}
	return tree
}

// Backups lists backup files written beside path.
func Backups(t testing.TB, path string) []string {
	t.Helper()

	matches, err := filepath.Glob(path + ".backup-*")
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	return matches
}
