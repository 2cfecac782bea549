package runlog_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"lectern/internal/runlog"
	"lectern/internal/testsupport"
)

func TestStartFinishRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunLog(t, cfg)
	ctx := context.Background()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.SetClock(func() time.Time { return clock })

	run, err := store.Start(ctx, "", "fill", "es")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Fatalf("run id %q is not a uuid", run.ID)
	}
	if run.Status != runlog.StatusRunning {
		t.Fatalf("status = %q", run.Status)
	}

	clock = clock.Add(90 * time.Second)
	summary := map[string]int{"translated": 3}
	if err := store.Finish(ctx, run.ID, runlog.StatusFailed, summary, errors.New("provider down")); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Command != "fill" || got.Language != "es" || got.Status != runlog.StatusFailed {
		t.Fatalf("run = %+v", got)
	}
	if got.Error != "provider down" {
		t.Fatalf("error = %q", got.Error)
	}
	if got.Duration() != 90*time.Second {
		t.Fatalf("duration = %v", got.Duration())
	}
	var decoded map[string]int
	if err := json.Unmarshal(got.Summary, &decoded); err != nil || decoded["translated"] != 3 {
		t.Fatalf("summary = %s (%v)", got.Summary, err)
	}
}

func TestStartKeepsGivenID(t *testing.T) {
	store := testsupport.MustOpenRunLog(t, testsupport.NewConfig(t))
	run, err := store.Start(context.Background(), "run-7", "map", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := store.Get(context.Background(), "run-7")
	if err != nil || got == nil || got.ID != run.ID || got.Language != "" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestStartRequiresCommand(t *testing.T) {
	store := testsupport.MustOpenRunLog(t, testsupport.NewConfig(t))
	if _, err := store.Start(context.Background(), "", " ", "es"); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := testsupport.MustOpenRunLog(t, testsupport.NewConfig(t))
	if err := store.Finish(context.Background(), "missing", runlog.StatusSucceeded, nil, nil); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenRunLog(t, testsupport.NewConfig(t))
	got, err := store.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := testsupport.MustOpenRunLog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return clock })

	for _, cmd := range []string{"map", "consolidate", "fill", "consolidate"} {
		if _, err := store.Start(ctx, "", cmd, ""); err != nil {
			t.Fatalf("Start %s: %v", cmd, err)
		}
		clock = clock.Add(time.Minute)
	}

	runs, err := store.Recent(ctx, "", 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 3 || runs[0].Command != "consolidate" || runs[1].Command != "fill" {
		t.Fatalf("recent = %+v", runs)
	}

	filtered, err := store.Recent(ctx, "consolidate", 0)
	if err != nil {
		t.Fatalf("Recent filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("filtered = %d runs, want 2", len(filtered))
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runlog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := runlog.Open(path); !errors.Is(err, runlog.ErrSchemaMismatch) {
		t.Fatalf("Open error = %v, want ErrSchemaMismatch", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runs.db")
	store, err := runlog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, err := store.Start(context.Background(), "", "map", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = store.Close()

	reopened, err := runlog.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), run.ID)
	if err != nil || got == nil {
		t.Fatalf("Get after reopen = %+v, %v", got, err)
	}
}
