package content

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Field names one translatable episode field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldLogline     Field = "logline"
	FieldEpisodeCard Field = "episodeCard"
	FieldSummary     Field = "summary"
)

// Fields lists the translatable fields in scan order.
var Fields = []Field{FieldTitle, FieldLogline, FieldEpisodeCard, FieldSummary}

// EpisodeRef identifies a canonical episode.
type EpisodeRef struct {
	SeriesID  string `json:"seriesId"`
	EpisodeID string `json:"episodeId"`
}

func (r EpisodeRef) String() string {
	return r.SeriesID + "/" + r.EpisodeID
}

// Overlay is the per-language text of one episode. Keys are declared in
// alphabetical order so encoded trees have sorted keys throughout.
type Overlay struct {
	EpisodeCard string `json:"episodeCard"`
	Logline     string `json:"logline"`
	Summary     string `json:"summary"`
	Title       string `json:"title"`
}

// Get returns the value of f.
func (o Overlay) Get(f Field) string {
	switch f {
	case FieldTitle:
		return o.Title
	case FieldLogline:
		return o.Logline
	case FieldEpisodeCard:
		return o.EpisodeCard
	case FieldSummary:
		return o.Summary
	default:
		return ""
	}
}

// Set assigns v to f. Unknown fields are ignored.
func (o *Overlay) Set(f Field, v string) {
	switch f {
	case FieldTitle:
		o.Title = v
	case FieldLogline:
		o.Logline = v
	case FieldEpisodeCard:
		o.EpisodeCard = v
	case FieldSummary:
		o.Summary = v
	}
}

// SeriesContent is one series inside a content tree.
type SeriesContent struct {
	Episodes          map[string]*Overlay `json:"episodes"`
	SeriesDescription string              `json:"seriesDescription"`
	SeriesTitle       string              `json:"seriesTitle"`
}

// EpisodeIDs returns the series' episode ids in canonical order.
func (s *SeriesContent) EpisodeIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Episodes))
	for id := range s.Episodes {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Tree is the content of one language keyed by series id.
type Tree map[string]*SeriesContent

// SeriesIDs returns the tree's series ids sorted.
func (t Tree) SeriesIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Overlay returns the overlay for ref, or nil.
func (t Tree) Overlay(ref EpisodeRef) *Overlay {
	series := t[ref.SeriesID]
	if series == nil {
		return nil
	}
	return series.Episodes[ref.EpisodeID]
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for id, series := range t {
		if series == nil {
			out[id] = nil
			continue
		}
		cp := &SeriesContent{
			SeriesTitle:       series.SeriesTitle,
			SeriesDescription: series.SeriesDescription,
			Episodes:          make(map[string]*Overlay, len(series.Episodes)),
		}
		for epID, overlay := range series.Episodes {
			if overlay == nil {
				cp.Episodes[epID] = nil
				continue
			}
			ov := *overlay
			cp.Episodes[epID] = &ov
		}
		out[id] = cp
	}
	return out
}

// CompareIDs orders episode ids numerically when both are integers and
// lexically otherwise, with integers first.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortIDs sorts ids in place using CompareIDs.
func SortIDs(ids []string) {
	slices.SortFunc(ids, CompareIDs)
}
