package legacymap

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"lectern/internal/content"
	"lectern/internal/schema"
	"lectern/internal/services"
	"lectern/internal/textutil"
)

// Confidence grades how a key was matched.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// minCleanedLen is the shortest cleaned key the fuzzy step will consider.
const minCleanedLen = 3

var paperKeyPattern = regexp.MustCompile(`^paper[_-](\d+)$`)

// Source is one normalized legacy document offered to the mapper.
type Source struct {
	Name     string
	Language string
	// Kind limits which fields the consolidator takes from the source:
	// "titles", "summaries", or empty for all.
	Kind    string
	Entries schema.Result
}

// Mapping is a resolved legacy key.
type Mapping struct {
	SeriesID   string     `json:"seriesId"`
	EpisodeID  string     `json:"episodeId"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
}

// Ref returns the canonical episode the key maps to.
func (m Mapping) Ref() content.EpisodeRef {
	return content.EpisodeRef{SeriesID: m.SeriesID, EpisodeID: m.EpisodeID}
}

// Unmapped is a legacy key left for manual review.
type Unmapped struct {
	Key           string `json:"key"`
	CleanedKey    string `json:"cleanedKey"`
	DeclaredTitle string `json:"declaredTitle"`
	Source        string `json:"source"`
}

// SourceStats counts key occurrences in one source.
type SourceStats struct {
	Mapped   int `json:"mapped"`
	Unmapped int `json:"unmapped"`
}

// Stats summarizes a mapping run over distinct keys.
type Stats struct {
	Total     int                    `json:"total"`
	High      int                    `json:"high"`
	Medium    int                    `json:"medium"`
	Unmapped  int                    `json:"unmapped"`
	Ambiguous int                    `json:"ambiguous"`
	BySource  map[string]SourceStats `json:"bySource"`
	BySeries  map[string]int         `json:"bySeries"`
}

// Result is the mapping artifact.
type Result struct {
	Mapping  map[string]Mapping `json:"mapping"`
	Unmapped []Unmapped         `json:"unmapped"`
	Stats    Stats              `json:"stats"`
}

// Lookup returns the mapping for key.
func (r Result) Lookup(key string) (Mapping, bool) {
	m, ok := r.Mapping[key]
	return m, ok
}

// Err reports unmapped keys as an ErrUnmappedLegacyKey error, or nil. Callers
// log it; unmapped keys never fail a run.
func (r Result) Err() error {
	if len(r.Unmapped) == 0 {
		return nil
	}
	return services.Wrap(services.ErrUnmappedLegacyKey, "legacymap", "map",
		fmt.Sprintf("%d key(s) need manual review", len(r.Unmapped)), nil)
}

// Options tune key cleaning and selection.
type Options struct {
	// Prefixes are stripped from keys before fuzzy matching, e.g. "topic/".
	Prefixes []string
	// Categories restrict the run to keys starting with one of the prefixes.
	Categories []string
}

func (o Options) selected(key string) bool {
	if len(o.Categories) == 0 {
		return true
	}
	lowered := strings.ToLower(key)
	for _, category := range o.Categories {
		if strings.HasPrefix(lowered, strings.ToLower(category)) {
			return true
		}
	}
	return false
}

// CleanKey strips a path prefix and turns separators into spaces, then
// normalizes the result like a title.
func CleanKey(key string, prefixes []string) string {
	cleaned := strings.TrimSpace(key)
	for _, prefix := range prefixes {
		if prefix != "" && len(cleaned) >= len(prefix) && strings.EqualFold(cleaned[:len(prefix)], prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}
	if i := strings.LastIndex(cleaned, "/"); i >= 0 {
		cleaned = cleaned[i+1:]
	}
	cleaned = strings.NewReplacer("-", " ", "_", " ").Replace(cleaned)
	return textutil.NormalizeTitle(cleaned)
}

// Map resolves every selected key of sources against idx. Sources are
// processed in order and keys within a source in sorted order.
func Map(idx *Index, sources []Source, opts Options) Result {
	result := Result{
		Mapping: map[string]Mapping{},
		Stats: Stats{
			BySource: map[string]SourceStats{},
			BySeries: map[string]int{},
		},
	}
	seen := map[string]struct{}{}
	ambiguous := map[string]struct{}{}
	unmapped := map[string]Unmapped{}

	for _, src := range sources {
		stats := result.Stats.BySource[src.Name]
		for _, key := range src.Entries.Keys() {
			if !opts.selected(key) {
				continue
			}
			seen[key] = struct{}{}
			entry := src.Entries.Entries[key]
			found, isAmbiguous := resolveKey(idx, key, entry.Title, opts.Prefixes)
			if found.Confidence == "" {
				stats.Unmapped++
				if _, ok := unmapped[key]; !ok {
					unmapped[key] = Unmapped{
						Key:           key,
						CleanedKey:    CleanKey(key, opts.Prefixes),
						DeclaredTitle: entry.Title,
						Source:        src.Name,
					}
				}
				continue
			}
			stats.Mapped++
			found.Source = src.Name
			prev, exists := result.Mapping[key]
			if !exists || found.Confidence.rank() > prev.Confidence.rank() {
				result.Mapping[key] = found
				if isAmbiguous {
					ambiguous[key] = struct{}{}
				} else {
					delete(ambiguous, key)
				}
			}
		}
		result.Stats.BySource[src.Name] = stats
	}

	for key := range result.Mapping {
		delete(unmapped, key)
	}
	keys := make([]string, 0, len(unmapped))
	for key := range unmapped {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	result.Unmapped = make([]Unmapped, 0, len(keys))
	for _, key := range keys {
		result.Unmapped = append(result.Unmapped, unmapped[key])
	}

	result.Stats.Total = len(seen)
	result.Stats.Unmapped = len(result.Unmapped)
	result.Stats.Ambiguous = len(ambiguous)
	for _, m := range result.Mapping {
		switch m.Confidence {
		case ConfidenceHigh:
			result.Stats.High++
		case ConfidenceMedium:
			result.Stats.Medium++
		}
		result.Stats.BySeries[m.SeriesID]++
	}
	return result
}

// resolveKey applies the matching cascade to one key. The boolean is true when
// the winning step had more than one candidate.
func resolveKey(idx *Index, key, declared string, prefixes []string) (Mapping, bool) {
	if m := paperKeyPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(key))); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if refs := idx.paper(n); len(refs) > 0 {
				return newMapping(refs[0], ConfidenceHigh), distinctRefs(refs) > 1 || titleDisagrees(idx, declared, refs[0])
			}
		}
	}

	if declared != "" {
		if refs, ok := idx.exact(declared); ok {
			return newMapping(refs[0], ConfidenceHigh), distinctRefs(refs) > 1
		}
	}

	cleaned := CleanKey(key, prefixes)
	if utf8.RuneCountInString(cleaned) < minCleanedLen {
		return Mapping{}, false
	}
	if refs := idx.fuzzy(cleaned); len(refs) > 0 {
		return newMapping(refs[0], ConfidenceMedium), distinctRefs(refs) > 1
	}
	return Mapping{}, false
}

// titleDisagrees reports whether declared names other episodes exactly while
// not naming ref.
func titleDisagrees(idx *Index, declared string, ref content.EpisodeRef) bool {
	if declared == "" {
		return false
	}
	refs, ok := idx.exact(declared)
	return ok && !slices.Contains(refs, ref)
}

func newMapping(ref content.EpisodeRef, confidence Confidence) Mapping {
	return Mapping{SeriesID: ref.SeriesID, EpisodeID: ref.EpisodeID, Confidence: confidence}
}

func distinctRefs(refs []content.EpisodeRef) int {
	seen := make(map[content.EpisodeRef]struct{}, len(refs))
	for _, ref := range refs {
		seen[ref] = struct{}{}
	}
	return len(seen)
}
