package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"lectern/internal/textutil"
)

// Shape names a legacy document layout.
type Shape string

const (
	ShapePaperArray Shape = "paper_array"
	ShapeSlugObject Shape = "slug_object"
	ShapeSummaryKey Shape = "summary_key"
	// ShapeTree documents are already content trees and are read by the content package.
	ShapeTree Shape = "tree"
)

// ParseShape validates a configured shape name.
func ParseShape(value string) (Shape, error) {
	shape := Shape(strings.ToLower(strings.TrimSpace(value)))
	switch shape {
	case ShapePaperArray, ShapeSlugObject, ShapeSummaryKey, ShapeTree:
		return shape, nil
	default:
		return "", fmt.Errorf("unknown source shape %q", value)
	}
}

// Entry is one normalized legacy record.
type Entry struct {
	Key       string
	Title     string
	Logline   string
	ShortForm string
	LongForm  string
}

func (e Entry) empty() bool {
	return e.Title == "" && e.Logline == "" && e.ShortForm == "" && e.LongForm == ""
}

// Warning describes a dropped entry.
type Warning struct {
	// Position is the array index or object key of the offending entry.
	Position string
	Reason   string
}

func (w Warning) String() string {
	return w.Position + ": " + w.Reason
}

// Result holds the entries of one document keyed by legacy key.
type Result struct {
	Entries  map[string]Entry
	Warnings []Warning
}

// Keys returns the legacy keys sorted.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r.Entries))
	for key := range r.Entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// rawEntry lists every accepted spelling of each field.
type rawEntry struct {
	SummaryKey  string `mapstructure:"summaryKey"`
	PaperNumber *int   `mapstructure:"paper_number"`
	PaperCamel  *int   `mapstructure:"paperNumber"`

	Title string `mapstructure:"title"`
	Name  string `mapstructure:"name"`

	Logline string `mapstructure:"logline"`
	Tagline string `mapstructure:"tagline"`

	ShortForm      string `mapstructure:"shortForm"`
	ShortFormSnake string `mapstructure:"short_form"`
	ShortSummary   string `mapstructure:"shortSummary"`
	Card           string `mapstructure:"card"`
	EpisodeCard    string `mapstructure:"episodeCard"`

	LongForm      string `mapstructure:"longForm"`
	LongFormSnake string `mapstructure:"long_form"`
	LongSummary   string `mapstructure:"longSummary"`
	Summary       string `mapstructure:"summary"`
}

func (r rawEntry) entry(key string) Entry {
	return Entry{
		Key:       key,
		Title:     firstText(r.Title, r.Name),
		Logline:   firstText(r.Logline, r.Tagline),
		ShortForm: firstText(r.ShortForm, r.ShortFormSnake, r.ShortSummary, r.Card, r.EpisodeCard),
		LongForm:  firstText(r.LongForm, r.LongFormSnake, r.LongSummary, r.Summary),
	}
}

func (r rawEntry) paperNumber() (int, bool) {
	switch {
	case r.PaperNumber != nil:
		return *r.PaperNumber, true
	case r.PaperCamel != nil:
		return *r.PaperCamel, true
	default:
		return 0, false
	}
}

func firstText(values ...string) string {
	for _, v := range values {
		if text := textutil.PlainText(v); text != "" {
			return text
		}
	}
	return ""
}

func decodeEntry(value any) (rawEntry, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return rawEntry{}, fmt.Errorf("entry is %T, not an object", value)
	}
	var raw rawEntry
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return rawEntry{}, err
	}
	if err := decoder.Decode(obj); err != nil {
		return rawEntry{}, err
	}
	return raw, nil
}

// Load reads and normalizes the legacy document at path.
func Load(path string, shape Shape) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read legacy source %s: %w", path, err)
	}
	result, err := Normalize(data, shape)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// Normalize decodes data laid out as shape.
func Normalize(data []byte, shape Shape) (Result, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("decode legacy document: %w", err)
	}

	n := &normalizer{result: Result{Entries: map[string]Entry{}}}
	switch shape {
	case ShapePaperArray:
		items, ok := doc.([]any)
		if !ok {
			return Result{}, fmt.Errorf("paper_array document must be an array, got %T", doc)
		}
		n.paperArray(items)
	case ShapeSlugObject, ShapeSummaryKey:
		obj, ok := doc.(map[string]any)
		if !ok {
			return Result{}, fmt.Errorf("%s document must be an object, got %T", shape, doc)
		}
		n.keyedObject(obj, shape == ShapeSummaryKey)
	case ShapeTree:
		return Result{}, fmt.Errorf("tree documents are loaded as content trees")
	default:
		return Result{}, fmt.Errorf("unknown source shape %q", shape)
	}
	return n.result, nil
}

type normalizer struct {
	result Result
}

func (n *normalizer) warn(position, format string, args ...any) {
	n.result.Warnings = append(n.result.Warnings, Warning{Position: position, Reason: fmt.Sprintf(format, args...)})
}

func (n *normalizer) paperArray(items []any) {
	for i, item := range items {
		position := "[" + strconv.Itoa(i) + "]"
		raw, err := decodeEntry(item)
		if err != nil {
			n.warn(position, "dropped: %v", err)
			continue
		}
		number, ok := raw.paperNumber()
		if !ok {
			n.warn(position, "dropped: missing paper_number")
			continue
		}
		if number < 0 {
			n.warn(position, "dropped: negative paper_number %d", number)
			continue
		}
		n.add(position, raw.entry("paper_"+strconv.Itoa(number)))
	}
}

func (n *normalizer) keyedObject(obj map[string]any, allowOverride bool) {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, outer := range keys {
		position := strconv.Quote(outer)
		raw, err := decodeEntry(obj[outer])
		if err != nil {
			n.warn(position, "dropped: %v", err)
			continue
		}
		key := strings.TrimSpace(outer)
		if allowOverride {
			if inner := strings.TrimSpace(raw.SummaryKey); inner != "" {
				key = inner
			}
		}
		if key == "" {
			n.warn(position, "dropped: empty key")
			continue
		}
		n.add(position, raw.entry(key))
	}
}

func (n *normalizer) add(position string, entry Entry) {
	if entry.empty() {
		n.warn(position, "dropped %s: no content fields", entry.Key)
		return
	}
	if _, dup := n.result.Entries[entry.Key]; dup {
		n.warn(position, "dropped: duplicate key %s", entry.Key)
		return
	}
	n.result.Entries[entry.Key] = entry
}
