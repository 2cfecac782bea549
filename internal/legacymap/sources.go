package legacymap

import (
	"fmt"

	"lectern/internal/config"
	"lectern/internal/schema"
)

// DroppedEntry is a legacy entry the normalizer could not use.
type DroppedEntry struct {
	Source   string `json:"source"`
	Position string `json:"position"`
	Reason   string `json:"reason"`
}

func (d DroppedEntry) String() string {
	return d.Source + " " + d.Position + ": " + d.Reason
}

// Dropped lists the entries of s that were dropped during normalization.
func (s Source) Dropped() []DroppedEntry {
	if len(s.Entries.Warnings) == 0 {
		return nil
	}
	out := make([]DroppedEntry, 0, len(s.Entries.Warnings))
	for _, w := range s.Entries.Warnings {
		out = append(out, DroppedEntry{Source: s.Name, Position: w.Position, Reason: w.Reason})
	}
	return out
}

// LoadSources normalizes every configured non-tree source in declaration
// order. Sources that fail to load are returned as errors next to the ones
// that loaded.
func LoadSources(sources []config.Source) ([]Source, []error) {
	var (
		out  []Source
		errs []error
	)
	for _, src := range sources {
		shape, err := schema.ParseShape(src.Shape)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
			continue
		}
		if shape == schema.ShapeTree {
			continue
		}
		result, err := schema.Load(src.Path, shape)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
			continue
		}
		out = append(out, Source{Name: src.Name, Language: src.Language, Kind: src.Kind, Entries: result})
	}
	return out, errs
}
