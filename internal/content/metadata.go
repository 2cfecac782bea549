package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"lectern/internal/services"
)

// EpisodeMeta is the language-independent record of one episode.
type EpisodeMeta struct {
	ID            string
	PaperNumber   int
	HasPaper      bool
	Title         string
	Logline       string
	SourceURL     string
	ImageURL      string
	AudioURL      string
	PDFURL        string
	TranscriptURL string
}

type rawEpisode struct {
	ID            json.RawMessage `json:"id"`
	PaperNumber   json.RawMessage `json:"paperNumber"`
	Title         string          `json:"title"`
	Logline       string          `json:"logline"`
	SourceURL     string          `json:"sourceUrl"`
	ImageURL      string          `json:"imageUrl"`
	AudioURL      string          `json:"audioUrl"`
	PDFURL        string          `json:"pdfUrl"`
	TranscriptURL string          `json:"transcriptUrl"`
}

// UnmarshalJSON accepts ids and paper numbers written as strings or numbers.
func (e *EpisodeMeta) UnmarshalJSON(data []byte) error {
	var raw rawEpisode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := scalarString(raw.ID)
	if err != nil {
		return fmt.Errorf("episode id: %w", err)
	}
	*e = EpisodeMeta{
		ID:            id,
		Title:         strings.TrimSpace(raw.Title),
		Logline:       strings.TrimSpace(raw.Logline),
		SourceURL:     strings.TrimSpace(raw.SourceURL),
		ImageURL:      strings.TrimSpace(raw.ImageURL),
		AudioURL:      strings.TrimSpace(raw.AudioURL),
		PDFURL:        strings.TrimSpace(raw.PDFURL),
		TranscriptURL: strings.TrimSpace(raw.TranscriptURL),
	}
	paper, err := scalarString(raw.PaperNumber)
	if err != nil {
		return fmt.Errorf("episode %s paperNumber: %w", id, err)
	}
	if paper != "" {
		n, err := strconv.Atoi(paper)
		if err != nil {
			return fmt.Errorf("episode %s paperNumber %q: not an integer", id, paper)
		}
		e.PaperNumber = n
		e.HasPaper = true
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}

// SeriesMeta is one series of the canonical metadata.
type SeriesMeta struct {
	ID          string        `json:"-"`
	Title       string        `json:"seriesTitle"`
	Description string        `json:"seriesDescription"`
	Episodes    []EpisodeMeta `json:"episodes"`

	index map[string]int
}

// Episode returns the episode with id.
func (s *SeriesMeta) Episode(id string) (EpisodeMeta, bool) {
	if s == nil {
		return EpisodeMeta{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return EpisodeMeta{}, false
	}
	return s.Episodes[i], true
}

// EpisodeIDs returns the series' episode ids in canonical order.
func (s *SeriesMeta) EpisodeIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Episodes))
	for _, ep := range s.Episodes {
		ids = append(ids, ep.ID)
	}
	SortIDs(ids)
	return ids
}

func (s *SeriesMeta) buildIndex() error {
	s.index = make(map[string]int, len(s.Episodes))
	for i, ep := range s.Episodes {
		if ep.ID == "" {
			return fmt.Errorf("series %s: episode %d has no id", s.ID, i)
		}
		if _, dup := s.index[ep.ID]; dup {
			return fmt.Errorf("series %s: duplicate episode id %q", s.ID, ep.ID)
		}
		s.index[ep.ID] = i
	}
	return nil
}

// Metadata is the canonical catalog keyed by series id.
type Metadata struct {
	Series map[string]*SeriesMeta
}

// NewMetadata indexes series, rejecting empty or duplicate episode ids.
func NewMetadata(series map[string]*SeriesMeta) (*Metadata, error) {
	md := &Metadata{Series: make(map[string]*SeriesMeta, len(series))}
	for id, s := range series {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("metadata: empty series id")
		}
		if s == nil {
			s = &SeriesMeta{}
		}
		s.ID = id
		if err := s.buildIndex(); err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		md.Series[id] = s
	}
	return md, nil
}

// ParseMetadata decodes a metadata document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var raw map[string]*SeriesMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return NewMetadata(raw)
}

// LoadMetadata reads and decodes the metadata file at path.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "content", "load metadata", path, err)
	}
	md, err := ParseMetadata(data)
	if err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "content", "parse metadata", path, err)
	}
	return md, nil
}

// SeriesIDs returns all series ids sorted.
func (m *Metadata) SeriesIDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.Series))
	for id := range m.Series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Episode looks up one episode.
func (m *Metadata) Episode(ref EpisodeRef) (EpisodeMeta, bool) {
	if m == nil {
		return EpisodeMeta{}, false
	}
	return m.Series[ref.SeriesID].Episode(ref.EpisodeID)
}

// EpisodeCount returns the number of episodes across all series.
func (m *Metadata) EpisodeCount() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, s := range m.Series {
		total += len(s.Episodes)
	}
	return total
}
