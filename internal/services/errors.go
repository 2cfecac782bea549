package services

import (
	"errors"
	"fmt"
	"strings"

	"lectern/internal/runlog"
)

var (
	// ErrSchemaMismatch marks structural disagreement between metadata and a content tree.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnmappedLegacyKey marks a legacy key with no canonical episode.
	ErrUnmappedLegacyKey = errors.New("unmapped legacy key")
	// ErrTranslationProvider marks a failed or unusable translation response.
	ErrTranslationProvider = errors.New("translation provider error")
	// ErrWriteFailure marks a failed backup, write or post-write verification.
	ErrWriteFailure  = errors.New("write failure")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	// ErrLocked marks a content tree already held by another run.
	ErrLocked = errors.New("content tree locked")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrWriteFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a command error to the run status recorded in history.
func FailureStatus(err error) runlog.Status {
	switch {
	case err == nil:
		return runlog.StatusSucceeded
	case errors.Is(err, ErrSchemaMismatch), errors.Is(err, ErrConfiguration):
		return runlog.StatusInvalid
	case errors.Is(err, ErrLocked):
		return runlog.StatusLocked
	default:
		return runlog.StatusFailed
	}
}

var errorKinds = []struct {
	marker error
	kind   string
}{
	{ErrSchemaMismatch, "schema_mismatch"},
	{ErrUnmappedLegacyKey, "unmapped_legacy_key"},
	{ErrTranslationProvider, "translation_provider"},
	{ErrWriteFailure, "write_failure"},
	{ErrNotFound, "not_found"},
	{ErrConfiguration, "configuration"},
	{ErrLocked, "locked"},
}

// Kind returns a short label for the first marker err carries, or "" when it
// carries none.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.marker) {
			return k.kind
		}
	}
	return ""
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
