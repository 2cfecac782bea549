package testsupport

import (
	"testing"

	"lectern/internal/config"
	"lectern/internal/runlog"
)

// MustOpenRunLog opens the run history store for tests and registers cleanup.
func MustOpenRunLog(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()

	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
