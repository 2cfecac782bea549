package textutil

import "strings"

// Snippet shortens s to at most limit runes for log output, appending "..."
// when anything was cut. Whitespace is collapsed first.
func Snippet(s string, limit int) string {
	s = CollapseSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
