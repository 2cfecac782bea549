package legacymap

import (
	"slices"
	"strings"

	"lectern/internal/content"
	"lectern/internal/textutil"
)

// Index is the canonical lookup built from metadata, with the base-language
// tree supplying titles for episodes whose metadata has none.
type Index struct {
	titles map[string][]content.EpisodeRef
	sorted []string
	papers map[int][]content.EpisodeRef
}

// BuildIndex indexes metadata titles and paper numbers.
func BuildIndex(md *content.Metadata, base content.Tree) *Index {
	idx := &Index{
		titles: map[string][]content.EpisodeRef{},
		papers: map[int][]content.EpisodeRef{},
	}
	for _, seriesID := range md.SeriesIDs() {
		series := md.Series[seriesID]
		for _, episodeID := range series.EpisodeIDs() {
			ep, _ := series.Episode(episodeID)
			ref := content.EpisodeRef{SeriesID: seriesID, EpisodeID: episodeID}
			title := ep.Title
			if title == "" {
				if overlay := base.Overlay(ref); overlay != nil {
					title = overlay.Title
				}
			}
			if normalized := textutil.NormalizeTitle(title); normalized != "" {
				idx.titles[normalized] = append(idx.titles[normalized], ref)
			}
			if ep.HasPaper {
				idx.papers[ep.PaperNumber] = append(idx.papers[ep.PaperNumber], ref)
			}
		}
	}
	idx.sorted = make([]string, 0, len(idx.titles))
	for title := range idx.titles {
		idx.sorted = append(idx.sorted, title)
	}
	slices.Sort(idx.sorted)
	return idx
}

// Titles returns the number of distinct normalized titles indexed.
func (idx *Index) Titles() int {
	if idx == nil {
		return 0
	}
	return len(idx.sorted)
}

func (idx *Index) exact(title string) ([]content.EpisodeRef, bool) {
	refs, ok := idx.titles[textutil.NormalizeTitle(title)]
	return refs, ok && len(refs) > 0
}

// paper returns the episodes numbered n, in sorted series order. More than
// one ref means several series share the number.
func (idx *Index) paper(n int) []content.EpisodeRef {
	return idx.papers[n]
}

// fuzzy returns every ref whose title contains cleaned or shares its first
// three words, in sorted title order.
func (idx *Index) fuzzy(cleaned string) []content.EpisodeRef {
	prefix, hasPrefix := textutil.FirstWords(cleaned, 3)
	var matches []content.EpisodeRef
	for _, title := range idx.sorted {
		match := strings.Contains(title, cleaned)
		if !match && hasPrefix {
			if titlePrefix, ok := textutil.FirstWords(title, 3); ok && titlePrefix == prefix {
				match = true
			}
		}
		if match {
			matches = append(matches, idx.titles[title]...)
		}
	}
	return matches
}

