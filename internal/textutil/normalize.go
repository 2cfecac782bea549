package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTitle case-folds s and collapses whitespace. Two titles that differ
// only by case or spacing normalize to the same string.
func NormalizeTitle(s string) string {
	return CollapseSpace(cases.Fold().String(s))
}

// Tokenize splits text into case-folded words on any non-letter, non-digit rune.
// Apostrophes inside a word are kept so contractions stay one token.
func Tokenize(text string) []string {
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// FirstWords returns the first n whitespace-separated words of s joined by a
// single space, and false when s has fewer than n words.
func FirstWords(s string, n int) (string, bool) {
	words := strings.Fields(s)
	if n <= 0 || len(words) < n {
		return "", false
	}
	return strings.Join(words[:n], " "), true
}
