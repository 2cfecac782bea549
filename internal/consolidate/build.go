package consolidate

import (
	"fmt"
	"strings"

	"lectern/internal/content"
	"lectern/internal/legacymap"
	"lectern/internal/schema"
)

// TreeSource is a legacy document already in content tree shape.
type TreeSource struct {
	Name string
	Tree content.Tree
}

// Input is everything needed to build one language's tree.
type Input struct {
	Language    string
	Metadata    *content.Metadata
	Existing    content.Tree
	TreeSources []TreeSource
	Legacy      []legacymap.Source
	Mapping     legacymap.Result
}

// candidates collects field values for one episode in precedence order.
type candidates map[content.Field][]string

func (c candidates) add(f content.Field, v string) {
	if v = strings.TrimSpace(v); v != "" {
		c[f] = append(c[f], v)
	}
}

func (c candidates) first(f content.Field) string {
	if values := c[f]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Build assembles the language's tree and validates it. Field precedence is
// tree sources, mapped legacy sources in declaration order, the existing
// tree, then metadata title and logline.
func Build(in Input) (content.Tree, Report) {
	md := in.Metadata
	report := Report{Language: in.Language}
	report.merge(checkTreeSources(in, md))

	legacy := indexLegacy(in, &report)

	tree := make(content.Tree, len(md.Series))
	for _, seriesID := range md.SeriesIDs() {
		meta := md.Series[seriesID]
		series := &content.SeriesContent{Episodes: make(map[string]*content.Overlay, len(meta.Episodes))}

		var titles, descriptions []string
		for _, src := range in.TreeSources {
			if s := src.Tree[seriesID]; s != nil {
				titles = append(titles, s.SeriesTitle)
				descriptions = append(descriptions, s.SeriesDescription)
			}
		}
		if s := in.Existing[seriesID]; s != nil {
			titles = append(titles, s.SeriesTitle)
			descriptions = append(descriptions, s.SeriesDescription)
		}
		titles = append(titles, meta.Title)
		descriptions = append(descriptions, meta.Description)
		series.SeriesTitle = firstNonBlank(titles...)
		series.SeriesDescription = firstNonBlank(descriptions...)

		for _, episodeID := range meta.EpisodeIDs() {
			ref := content.EpisodeRef{SeriesID: seriesID, EpisodeID: episodeID}
			ep, _ := meta.Episode(episodeID)
			c := candidates{}
			for _, src := range in.TreeSources {
				if ov := src.Tree.Overlay(ref); ov != nil {
					for _, f := range content.Fields {
						c.add(f, ov.Get(f))
					}
				}
			}
			for _, entry := range legacy[ref] {
				for f, v := range entry {
					c.add(f, v)
				}
			}
			if ov := in.Existing.Overlay(ref); ov != nil {
				for _, f := range content.Fields {
					c.add(f, ov.Get(f))
				}
			}
			c.add(content.FieldTitle, ep.Title)
			c.add(content.FieldLogline, ep.Logline)

			overlay := &content.Overlay{}
			for _, f := range content.Fields {
				overlay.Set(f, c.first(f))
			}
			series.Episodes[episodeID] = overlay
		}
		tree[seriesID] = series
	}

	for _, seriesID := range in.Existing.SeriesIDs() {
		existing := in.Existing[seriesID]
		meta, ok := md.Series[seriesID]
		if !ok {
			report.warnf(CodeOrphanContent, content.EpisodeRef{SeriesID: seriesID}, "existing tree series not in metadata; dropped")
			continue
		}
		for _, episodeID := range existing.EpisodeIDs() {
			if _, ok := meta.Episode(episodeID); !ok {
				report.warnf(CodeOrphanContent, content.EpisodeRef{SeriesID: seriesID, EpisodeID: episodeID}, "existing tree episode not in metadata; dropped")
			}
		}
	}

	report.merge(Validate(in.Language, md, tree))
	return tree, report
}

// checkTreeSources reports tree sources whose declared series disagree with
// metadata structure.
func checkTreeSources(in Input, md *content.Metadata) Report {
	report := Report{Language: in.Language}
	for _, src := range in.TreeSources {
		for _, seriesID := range src.Tree.SeriesIDs() {
			ref := content.EpisodeRef{SeriesID: seriesID}
			meta, ok := md.Series[seriesID]
			if !ok {
				report.Errors = append(report.Errors, Issue{
					Severity: SeverityError, Code: CodeSourceDrift, SeriesID: seriesID, Source: src.Name,
					Message: "source declares a series not present in metadata",
				})
				continue
			}
			declared := src.Tree[seriesID].EpisodeIDs()
			missing, extra := diffKeys(meta.EpisodeIDs(), declared)
			if len(missing) > 0 || len(extra) > 0 {
				report.Errors = append(report.Errors, Issue{
					Severity: SeverityError, Code: CodeSourceDrift, SeriesID: ref.SeriesID, Source: src.Name,
					Message: fmt.Sprintf("source declares %d episodes, metadata has %d (missing %s; unexpected %s)",
						len(declared), len(meta.Episodes), listOrNone(missing), listOrNone(extra)),
				})
			}
		}
	}
	return report
}

// indexLegacy groups the mapped legacy entries of the language by episode,
// in source order then key order, honoring each source's kind.
func indexLegacy(in Input, report *Report) map[content.EpisodeRef][]map[content.Field]string {
	out := map[content.EpisodeRef][]map[content.Field]string{}
	for _, src := range in.Legacy {
		if src.Language != in.Language {
			continue
		}
		for _, key := range src.Entries.Keys() {
			mapping, ok := in.Mapping.Lookup(key)
			if !ok {
				report.Warnings = append(report.Warnings, Issue{
					Severity: SeverityWarning, Code: CodeUnmappedKey, Source: src.Name,
					Message: "legacy key " + key + " is unmapped; content not consolidated",
				})
				continue
			}
			ref := mapping.Ref()
			if _, ok := in.Metadata.Episode(ref); !ok {
				report.Warnings = append(report.Warnings, Issue{
					Severity: SeverityWarning, Code: CodeUnmappedKey, Source: src.Name, SeriesID: ref.SeriesID, EpisodeID: ref.EpisodeID,
					Message: "legacy key " + key + " maps to an episode missing from metadata",
				})
				continue
			}
			out[ref] = append(out[ref], legacyFields(src.Entries.Entries[key], src.Kind))
		}
	}
	return out
}

func legacyFields(entry schema.Entry, kind string) map[content.Field]string {
	fields := map[content.Field]string{}
	if kind == "" || kind == "titles" {
		fields[content.FieldTitle] = entry.Title
	}
	if kind == "" || kind == "summaries" {
		fields[content.FieldLogline] = entry.Logline
		fields[content.FieldEpisodeCard] = entry.ShortForm
		fields[content.FieldSummary] = entry.LongForm
	}
	return fields
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
