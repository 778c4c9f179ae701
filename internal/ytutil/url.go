package ytutil

import (
	"regexp"
	"strings"
)

// Patterns are tried in order; the first match wins. Each captures the
// 11-character video identifier.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/(?:embed|v|shorts)/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the canonical 11-character video ID out of a raw ID
// token or any supported YouTube URL shape. It never errors on junk input;
// ok is false when nothing matched.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// ValidURL reports whether the input names a video we can ingest.
func ValidURL(raw string) bool {
	_, ok := ExtractVideoID(raw)
	return ok
}
