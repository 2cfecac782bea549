package main

import (
	"fmt"
	"slices"
	"time"

	"lectern/internal/language"
)

func sortStrings(values []string) {
	slices.Sort(values)
}

func formatCost(value float64) string {
	return fmt.Sprintf("$%.4f", value)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func normalizeLanguages(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, language.MustNormalize(value))
	}
	return out
}
