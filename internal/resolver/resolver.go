package resolver

import (
	"slices"
	"strings"

	"lectern/internal/content"
	"lectern/internal/language"
	"lectern/internal/textutil"
)

// Episode is the merged record handed to page rendering.
type Episode struct {
	SeriesID          string          `json:"seriesId"`
	SeriesTitle       string          `json:"seriesTitle"`
	SeriesDescription string          `json:"seriesDescription,omitempty"`
	EpisodeID         string          `json:"episodeId"`
	PaperNumber       int             `json:"paperNumber,omitempty"`
	Language          string          `json:"language"`
	Title             string          `json:"title"`
	Logline           string          `json:"logline,omitempty"`
	EpisodeCard       string          `json:"episodeCard,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	SourceURL         string          `json:"sourceUrl,omitempty"`
	ImageURL          string          `json:"imageUrl,omitempty"`
	AudioURL          string          `json:"audioUrl,omitempty"`
	PDFURL            string          `json:"pdfUrl,omitempty"`
	TranscriptURL     string          `json:"transcriptUrl,omitempty"`
	Fallbacks         []content.Field `json:"fallbacks,omitempty"`
}

// Series describes one series in a given language.
type Series struct {
	ID          string   `json:"seriesId"`
	Language    string   `json:"language"`
	Title       string   `json:"seriesTitle"`
	Description string   `json:"seriesDescription,omitempty"`
	EpisodeIDs  []string `json:"episodeIds"`
}

type baseEpisode struct {
	meta    content.EpisodeMeta
	overlay content.Overlay
}

type baseSeries struct {
	title       string
	description string
	episodes    map[string]baseEpisode
	order       []string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDetector makes overlay values the detector flags as untranslated fall
// back to the base language.
func WithDetector(d *textutil.Detector) Option {
	return func(r *Resolver) {
		r.detector = d
	}
}

// Resolver answers episode lookups. The zero value is not usable; call New.
type Resolver struct {
	base      string
	series    map[string]baseSeries
	overlays  map[string]content.Tree
	languages []string
	detector  *textutil.Detector
}

// New builds a resolver from metadata and content trees keyed by language.
// The base tree refines metadata titles and loglines. Inputs are copied, so
// later changes by the caller are not observed.
func New(md *content.Metadata, trees map[string]content.Tree, base string, opts ...Option) *Resolver {
	base = language.MustNormalize(base)
	r := &Resolver{
		base:     base,
		series:   make(map[string]baseSeries),
		overlays: make(map[string]content.Tree),
	}
	for _, opt := range opts {
		opt(r)
	}

	baseTree := trees[base]
	for _, seriesID := range md.SeriesIDs() {
		meta := md.Series[seriesID]
		bs := baseSeries{
			title:       meta.Title,
			description: meta.Description,
			episodes:    make(map[string]baseEpisode, len(meta.Episodes)),
			order:       meta.EpisodeIDs(),
		}
		if tc := baseTree[seriesID]; tc != nil {
			bs.title = preferText(tc.SeriesTitle, bs.title)
			bs.description = preferText(tc.SeriesDescription, bs.description)
		}
		for _, ep := range meta.Episodes {
			be := baseEpisode{meta: ep}
			if ov := baseTree.Overlay(content.EpisodeRef{SeriesID: seriesID, EpisodeID: ep.ID}); ov != nil {
				be.overlay = *ov
			}
			be.overlay.Title = preferText(be.overlay.Title, ep.Title)
			be.overlay.Logline = preferText(be.overlay.Logline, ep.Logline)
			bs.episodes[ep.ID] = be
		}
		r.series[seriesID] = bs
	}

	r.languages = append(r.languages, base)
	for lang, tree := range trees {
		code := language.MustNormalize(lang)
		if code == base || code == "" {
			continue
		}
		r.overlays[code] = tree.Clone()
		if !slices.Contains(r.languages, code) {
			r.languages = append(r.languages, code)
		}
	}
	slices.Sort(r.languages[1:])
	return r
}

// BaseLanguage returns the base language code.
func (r *Resolver) BaseLanguage() string {
	return r.base
}

// Languages returns the base language followed by the overlay languages.
func (r *Resolver) Languages() []string {
	return slices.Clone(r.languages)
}

// SeriesIDs returns every known series id sorted.
func (r *Resolver) SeriesIDs() []string {
	ids := make([]string, 0, len(r.series))
	for id := range r.series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Series returns series-level fields for lang.
func (r *Resolver) Series(seriesID, lang string) (Series, bool) {
	bs, ok := r.series[seriesID]
	if !ok {
		return Series{}, false
	}
	lang, overlay := r.overlayTree(lang)
	out := Series{
		ID:          seriesID,
		Language:    lang,
		Title:       bs.title,
		Description: bs.description,
		EpisodeIDs:  slices.Clone(bs.order),
	}
	if tc := overlay[seriesID]; tc != nil {
		out.Title = r.pick(tc.SeriesTitle, bs.title)
		out.Description = r.pick(tc.SeriesDescription, bs.description)
	}
	return out, true
}

// Resolve returns the episode in lang. Empty or unknown languages resolve as
// the base language. The bool is false when the series or episode is unknown.
func (r *Resolver) Resolve(episodeID, seriesID, lang string) (Episode, bool) {
	bs, ok := r.series[seriesID]
	if !ok {
		return Episode{}, false
	}
	be, ok := bs.episodes[episodeID]
	if !ok {
		return Episode{}, false
	}
	lang, overlay := r.overlayTree(lang)

	ep := Episode{
		SeriesID:          seriesID,
		SeriesTitle:       bs.title,
		SeriesDescription: bs.description,
		EpisodeID:         episodeID,
		Language:          lang,
		Title:             be.overlay.Title,
		Logline:           be.overlay.Logline,
		EpisodeCard:       be.overlay.EpisodeCard,
		Summary:           be.overlay.Summary,
		SourceURL:         be.meta.SourceURL,
		ImageURL:          be.meta.ImageURL,
		AudioURL:          be.meta.AudioURL,
		PDFURL:            be.meta.PDFURL,
		TranscriptURL:     be.meta.TranscriptURL,
	}
	if be.meta.HasPaper {
		ep.PaperNumber = be.meta.PaperNumber
	}
	if lang == r.base {
		return ep, true
	}

	if tc := overlay[seriesID]; tc != nil {
		ep.SeriesTitle = r.pick(tc.SeriesTitle, bs.title)
		ep.SeriesDescription = r.pick(tc.SeriesDescription, bs.description)
	}
	var localized content.Overlay
	if ov := overlay.Overlay(content.EpisodeRef{SeriesID: seriesID, EpisodeID: episodeID}); ov != nil {
		localized = *ov
	}
	for _, field := range content.Fields {
		baseValue := be.overlay.Get(field)
		own := localized.Get(field)
		value := r.pick(own, baseValue)
		if value != own && baseValue != "" {
			ep.Fallbacks = append(ep.Fallbacks, field)
		}
		setField(&ep, field, value)
	}

	ep.AudioURL = LocalizeURL(ep.AudioURL, lang)
	ep.PDFURL = LocalizeURL(ep.PDFURL, lang)
	ep.TranscriptURL = LocalizeURL(ep.TranscriptURL, lang)
	return ep, true
}

// overlayTree maps lang onto a known language and returns its tree. The base
// language has no overlay tree.
func (r *Resolver) overlayTree(lang string) (string, content.Tree) {
	code, err := language.Normalize(lang)
	if err != nil || code == r.base {
		return r.base, nil
	}
	tree, ok := r.overlays[code]
	if !ok {
		return r.base, nil
	}
	return code, tree
}

// pick returns value unless it is blank or still reads as the base language.
func (r *Resolver) pick(value, fallback string) string {
	if strings.TrimSpace(value) == "" || r.detector.LooksUntranslated(value) {
		return fallback
	}
	return value
}

func preferText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func setField(ep *Episode, field content.Field, value string) {
	switch field {
	case content.FieldTitle:
		ep.Title = value
	case content.FieldLogline:
		ep.Logline = value
	case content.FieldEpisodeCard:
		ep.EpisodeCard = value
	case content.FieldSummary:
		ep.Summary = value
	}
}
