package logging

import "strings"

// subject is the header label rendered after the component on console lines.
type subject struct {
	component string
	language  string
	series    string
	episode   string
}

// String renders "ES · series/episode" with whichever parts are present.
func (s subject) String() string {
	parts := make([]string, 0, 2)
	if lang := strings.TrimSpace(s.language); lang != "" {
		parts = append(parts, strings.ToUpper(lang))
	}
	series := strings.TrimSpace(s.series)
	episode := strings.TrimSpace(s.episode)
	switch {
	case series != "" && episode != "":
		parts = append(parts, series+"/"+episode)
	case series != "":
		parts = append(parts, series)
	case episode != "":
		parts = append(parts, "#"+episode)
	}
	return strings.Join(parts, " · ")
}
