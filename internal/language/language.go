package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "español", "espanol"}},
	{"fr", "fra", "fre", "French", []string{"french", "français", "francais"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian", "italiano"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese", "português", "portugues"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize converts a language code, tag, or name into its lowercase
// ISO 639-1 base code. Regional subtags are dropped ("pt-BR" becomes "pt").
func Normalize(code string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	if e := lookup(trimmed); e != nil {
		return e.code2, nil
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", code, err)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", fmt.Errorf("unrecognized language %q", code)
	}
	normalized := strings.ToLower(base.String())
	if normalized == "" || normalized == "und" {
		return "", fmt.Errorf("unrecognized language %q", code)
	}
	return normalized, nil
}

// MustNormalize is Normalize for inputs that have already been validated.
// Unrecognized input is returned lowercased and trimmed.
func MustNormalize(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	return normalized
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input. Codes outside the built-in table are
// named through the x/text display tables, falling back to the uppercased code.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if tag, err := xlanguage.Parse(strings.TrimSpace(code)); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList deduplicates and normalizes a list of language codes,
// silently dropping unrecognized entries.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		code, err := Normalize(value)
		if err != nil {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
