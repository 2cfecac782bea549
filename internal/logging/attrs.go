package logging

import (
	"context"
	"log/slog"
	"time"

	"lectern/internal/services"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Alert marks a record that should stand out when filtering structured logs.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

// Language tags a record with the content language being processed.
func Language(code string) Attr { return slog.String(FieldLanguage, code) }

// Series and Episode identify the catalog entry a record is about. The
// console handler renders them in the line header instead of as fields.
func Series(id string) Attr { return slog.String(FieldSeriesID, id) }

func Episode(id string) Attr { return slog.String(FieldEpisodeID, id) }

// Field names the overlay field (title, logline, episodeCard, summary).
func Field(name string) Attr { return slog.String(FieldContentField, name) }

// Source names the configured legacy source.
func Source(name string) Attr { return slog.String(FieldSource, name) }

// Hint is the operator's next step; Impact is what the problem costs them.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

func Impact(text string) Attr { return slog.String(FieldImpact, text) }

// Error records err under "error". Pipeline markers from internal/services
// add an error_kind field so failures can be grouped without parsing text.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	if kind := services.Kind(err); kind != "" {
		return slog.Group("", slog.Any("error", err), slog.String(FieldErrorKind, kind))
	}
	return slog.Any("error", err)
}

// Args converts typed attributes into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey returns true if any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// WarnWithContext logs a warning with enforced event_type, error_hint, and impact fields.
// Missing fields are filled with defaults so every warning carries cause, impact, and a next step.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !HasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, Hint("check logs for details"))
	}
	if !HasAttrKey(attrs, FieldImpact) {
		attrs = append(attrs, Impact("operation completed with warnings"))
	}
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error with enforced event_type and error_hint fields.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !HasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, Hint("check logs for details"))
	}
	logger.Error(msg, Args(attrs...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
