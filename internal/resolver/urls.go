package resolver

import (
	"net/url"
	"strings"
)

// LocalizeURL inserts lang as a path segment immediately before the file name
// of raw. The rest of raw is kept byte for byte, so escaped characters in the
// file name (%2F, %20) and literal spaces survive. Empty values, opaque URLs,
// paths without a file name and paths already localized are returned as is.
func LocalizeURL(raw, lang string) string {
	if strings.TrimSpace(raw) == "" || lang == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" {
		return raw
	}
	start, end := pathBounds(raw, u)
	p := raw[start:end]
	slash := strings.LastIndexByte(p, '/')
	dir, file := p[:slash+1], p[slash+1:]
	if file == "" {
		return raw
	}
	if parent := strings.TrimSuffix(dir, "/"); parent[strings.LastIndexByte(parent, '/')+1:] == lang {
		return raw
	}
	return raw[:start] + dir + lang + "/" + file + raw[end:]
}

// pathBounds locates the path of u inside the text it was parsed from.
func pathBounds(raw string, u *url.URL) (int, int) {
	var start int
	prefix := 0
	if u.Scheme != "" {
		prefix = len(u.Scheme) + 1
	}
	switch {
	case strings.HasPrefix(raw[prefix:], "//"):
		authority := prefix + 2
		if i := strings.IndexAny(raw[authority:], "/?#"); i >= 0 {
			start = authority + i
		} else {
			start = len(raw)
		}
	default:
		start = prefix
	}
	end := len(raw)
	if i := strings.IndexAny(raw[start:], "?#"); i >= 0 {
		end = start + i
	}
	return start, end
}
