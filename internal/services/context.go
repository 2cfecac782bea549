package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	languageKey contextKey = "language"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLanguage annotates context with the language being processed.
func WithLanguage(ctx context.Context, lang string) context.Context {
	if lang == "" {
		return ctx
	}
	return context.WithValue(ctx, languageKey, lang)
}

// LanguageFromContext returns the language code if present.
func LanguageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(languageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
