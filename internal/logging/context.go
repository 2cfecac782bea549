package logging

import (
	"context"
	"log/slog"

	"lectern/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one invocation of a pipeline command.
	FieldRunID = "run_id"
	// FieldLanguage is the language code being processed.
	FieldLanguage = "language"
	// FieldSeriesID is the metadata series identifier.
	FieldSeriesID = "series_id"
	// FieldEpisodeID is the metadata episode identifier within a series.
	FieldEpisodeID = "episode_id"
	// FieldContentField names the episode field (title, logline, episodeCard, summary).
	FieldContentField = "field"
	// FieldSource is the configured legacy source name.
	FieldSource = "source"
	// FieldEventType classifies a warning or error for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind labels the pipeline error marker carried by an error attribute.
	FieldErrorKind = "error_kind"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if lang, ok := services.LanguageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLanguage, lang))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
