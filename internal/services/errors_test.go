package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lectern/internal/runlog"
	"lectern/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrWriteFailure, "consolidate", "write", "es.json", base)
	if !errors.Is(err, services.ErrWriteFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"consolidate", "write", "es.json"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want runlog.Status
	}{
		{"nil", nil, runlog.StatusSucceeded},
		{"schema", services.Wrap(services.ErrSchemaMismatch, "consolidate", "validate", "es", nil), runlog.StatusInvalid},
		{"config", services.Wrap(services.ErrConfiguration, "fill", "start", "missing key", nil), runlog.StatusInvalid},
		{"locked", services.Wrap(services.ErrLocked, "fill", "lock", "es", nil), runlog.StatusLocked},
		{"other", errors.New("io"), runlog.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureStatus(tt.err); got != tt.want {
				t.Fatalf("FailureStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := services.WithLanguage(services.WithRunID(context.Background(), "abc"), "es")
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if lang, ok := services.LanguageFromContext(ctx); !ok || lang != "es" {
		t.Fatalf("language = %q, %v", lang, ok)
	}
	if _, ok := services.RunIDFromContext(services.WithRunID(context.Background(), "")); ok {
		t.Fatal("empty run id should not be stored")
	}
}

func TestKind(t *testing.T) {
	if got := services.Kind(services.Wrap(services.ErrLocked, "fill", "lock", "es", nil)); got != "locked" {
		t.Fatalf("Kind(locked) = %q", got)
	}
	joined := errors.Join(errors.New("first"), services.Wrap(services.ErrNotFound, "cli", "resolve", "", nil))
	if got := services.Kind(joined); got != "not_found" {
		t.Fatalf("Kind(joined) = %q", got)
	}
	if got := services.Kind(errors.New("plain")); got != "" {
		t.Fatalf("Kind(plain) = %q", got)
	}
}
