package consolidate

import (
	"fmt"
	"strings"

	"lectern/internal/content"
	"lectern/internal/services"
)

// Severity separates blocking issues from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeSeriesMissing    = "series_missing"
	CodeEpisodeMismatch  = "episode_mismatch"
	CodeSourceDrift      = "source_drift"
	CodeEmptyTitle       = "empty_title"
	CodeEmptySummary     = "empty_summary"
	CodeEmptyCard        = "empty_episode_card"
	CodeUnmappedKey      = "unmapped_key"
	CodeOrphanContent    = "orphan_content"
	CodeTreeMissing      = "tree_missing"
	CodeSourceLoadFailed = "source_load_failed"
	CodeEntryDropped     = "entry_dropped"
)

// Issue is one validation finding.
type Issue struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	SeriesID  string   `json:"seriesId,omitempty"`
	EpisodeID string   `json:"episodeId,omitempty"`
	Source    string   `json:"source,omitempty"`
	Message   string   `json:"message"`
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Code)
	if i.SeriesID != "" {
		b.WriteString(" ")
		b.WriteString(i.SeriesID)
		if i.EpisodeID != "" {
			b.WriteString("/")
			b.WriteString(i.EpisodeID)
		}
	}
	if i.Source != "" {
		b.WriteString(" [")
		b.WriteString(i.Source)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(i.Message)
	return b.String()
}

// Report collects the findings for one language.
type Report struct {
	Language string  `json:"language"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Report) errorf(code string, ref content.EpisodeRef, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{
		Severity:  SeverityError,
		Code:      code,
		SeriesID:  ref.SeriesID,
		EpisodeID: ref.EpisodeID,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (r *Report) warnf(code string, ref content.EpisodeRef, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{
		Severity:  SeverityWarning,
		Code:      code,
		SeriesID:  ref.SeriesID,
		EpisodeID: ref.EpisodeID,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (r *Report) merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// OK reports whether the language may be written.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns an ErrSchemaMismatch error describing the first errors, or nil.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	const shown = 3
	parts := make([]string, 0, shown)
	for i, issue := range r.Errors {
		if i == shown {
			break
		}
		parts = append(parts, issue.String())
	}
	msg := strings.Join(parts, "; ")
	if extra := len(r.Errors) - shown; extra > 0 {
		msg += fmt.Sprintf("; and %d more", extra)
	}
	return services.Wrap(services.ErrSchemaMismatch, "consolidate", r.Language,
		fmt.Sprintf("%d structural error(s): %s", len(r.Errors), msg), nil)
}

// Validate checks a content tree against metadata: every series and episode
// present with matching key sets, non-empty titles, and advisory warnings for
// empty summaries and episode cards.
func Validate(language string, md *content.Metadata, tree content.Tree) Report {
	report := Report{Language: language}
	for _, seriesID := range md.SeriesIDs() {
		seriesRef := content.EpisodeRef{SeriesID: seriesID}
		meta := md.Series[seriesID]
		series := tree[seriesID]
		if series == nil {
			report.errorf(CodeSeriesMissing, seriesRef, "series missing from %s tree", language)
			continue
		}
		if missing, extra := diffKeys(meta.EpisodeIDs(), series.EpisodeIDs()); len(missing) > 0 || len(extra) > 0 {
			report.errorf(CodeEpisodeMismatch, seriesRef,
				"metadata has %d episodes, tree has %d (missing %s; unexpected %s)",
				len(meta.Episodes), len(series.Episodes), listOrNone(missing), listOrNone(extra))
		}
		for _, episodeID := range meta.EpisodeIDs() {
			overlay := series.Episodes[episodeID]
			if overlay == nil {
				continue
			}
			ref := content.EpisodeRef{SeriesID: seriesID, EpisodeID: episodeID}
			if content.BlankField(overlay.Title) {
				report.errorf(CodeEmptyTitle, ref, "episode has no title")
			}
			if content.BlankField(overlay.Summary) {
				report.warnf(CodeEmptySummary, ref, "episode has no summary")
			}
			if content.BlankField(overlay.EpisodeCard) {
				report.warnf(CodeEmptyCard, ref, "episode has no episode card")
			}
		}
	}
	for _, seriesID := range tree.SeriesIDs() {
		if _, ok := md.Series[seriesID]; !ok {
			report.errorf(CodeSeriesMissing, content.EpisodeRef{SeriesID: seriesID}, "series not present in metadata")
		}
	}
	return report
}

// diffKeys returns the ids in want but not got, and in got but not want.
func diffKeys(want, got []string) (missing, extra []string) {
	gotSet := make(map[string]struct{}, len(got))
	for _, id := range got {
		gotSet[id] = struct{}{}
	}
	wantSet := make(map[string]struct{}, len(want))
	for _, id := range want {
		wantSet[id] = struct{}{}
		if _, ok := gotSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	for _, id := range got {
		if _, ok := wantSet[id]; !ok {
			extra = append(extra, id)
		}
	}
	return missing, extra
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	const limit = 5
	if len(ids) > limit {
		return strings.Join(ids[:limit], ",") + fmt.Sprintf(",+%d", len(ids)-limit)
	}
	return strings.Join(ids, ",")
}
