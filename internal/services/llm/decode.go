package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lectern/internal/textutil"
)

const snippetLimit = 160

func snippet(content string) string {
	if s := textutil.Snippet(content, snippetLimit); s != "" {
		return s
	}
	return "<empty>"
}

// DecodeLLMJSON decodes JSON from a model response, tolerating code fences
// and prose around the object.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	extracted := extractJSON(trimmed)
	if extracted == "" || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, snippet(extracted))
	}
	return nil
}

// extractJSON strips a ``` fence and returns the outermost object or array.
func extractJSON(content string) string {
	body := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		body = strings.TrimSpace(rest)
	}
	if body == "" || body[0] == '{' || body[0] == '[' {
		return body
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(body, pair[0])
		end := strings.LastIndex(body, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(body[start : end+1])
		}
	}
	return body
}
