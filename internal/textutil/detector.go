package textutil

import "strings"

// Detector flags text that still reads like the source language. It counts
// occurrences of indicator words; repeated words count every time.
type Detector struct {
	words     map[string]struct{}
	threshold int
}

// NewDetector builds a detector over the given indicator words. A threshold
// below one is raised to one.
func NewDetector(words []string, threshold int) *Detector {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		for _, token := range Tokenize(word) {
			set[token] = struct{}{}
		}
	}
	if threshold < 1 {
		threshold = 1
	}
	return &Detector{words: set, threshold: threshold}
}

// Threshold reports the occurrence count at which text is considered untranslated.
func (d *Detector) Threshold() int {
	if d == nil {
		return 0
	}
	return d.threshold
}

// Count returns the number of indicator word occurrences in text.
func (d *Detector) Count(text string) int {
	if d == nil || len(d.words) == 0 {
		return 0
	}
	count := 0
	for _, token := range Tokenize(text) {
		if _, ok := d.words[token]; ok {
			count++
		}
	}
	return count
}

// LooksUntranslated reports whether text carries at least threshold indicator words.
// A nil detector never flags anything.
func (d *Detector) LooksUntranslated(text string) bool {
	if d == nil || len(d.words) == 0 {
		return false
	}
	return d.Count(text) >= d.threshold
}

// IsGap reports whether a target-language value needs translation: it is empty
// or it still looks untranslated.
func (d *Detector) IsGap(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	return d.LooksUntranslated(text)
}
