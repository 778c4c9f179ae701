package ytutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch URL with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with params", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"raw ID", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"raw ID with whitespace", "  dQw4w9WgXcQ\n", "dQw4w9WgXcQ", true},
		{"not a url", "not-a-url", "", false},
		{"wrong host", "https://invalid.com/video", "", false},
		{"empty", "", "", false},
		{"too short ID", "abc123", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tc.input)
			if ok != tc.ok {
				t.Fatalf("ExtractVideoID(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractVideoID_AllShapesAgree(t *testing.T) {
	const id = "ABCDEFGHIJK"
	shapes := []string{
		id,
		"https://www.youtube.com/watch?v=" + id,
		"https://youtu.be/" + id,
		"https://www.youtube.com/embed/" + id,
		"https://www.youtube.com/v/" + id,
	}

	for _, shape := range shapes {
		got, ok := ExtractVideoID(shape)
		if !ok || got != id {
			t.Errorf("shape %q resolved to (%q, %v), want (%q, true)", shape, got, ok, id)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		iso  string
		want int
	}{
		{"PT1H2M10S", 3730},
		{"PT45S", 45},
		{"PT3M", 180},
		{"PT2H", 7200},
		{"PT", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tc := range tests {
		if got := ParseISODuration(tc.iso); got != tc.want {
			t.Errorf("ParseISODuration(%q) = %d, want %d", tc.iso, got, tc.want)
		}
	}
}

func TestSRTToPlainText(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:03,500\nWelcome back to the channel\n\n2\n00:00:03,500 --> 00:00:07,000\ntoday we talk about recovery\n\n\n\n3\n00:00:07,000 --> 00:00:09,000\nand ice baths\n"

	got := SRTToPlainText(srt)

	if strings.Contains(got, "-->") {
		t.Errorf("timestamps not stripped: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank runs not collapsed: %q", got)
	}
	for _, line := range []string{"Welcome back to the channel", "today we talk about recovery", "and ice baths"} {
		if !strings.Contains(got, line) {
			t.Errorf("spoken line %q missing from %q", line, got)
		}
	}
	// Order preserved
	if strings.Index(got, "Welcome") > strings.Index(got, "ice baths") {
		t.Errorf("line order not preserved: %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  hello\n\tworld   again ")
	if got != "hello world again" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"ascii under limit", "hello", 10, "hello"},
		{"ascii at limit", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"multibyte cut on boundary", "ééééé", 3, "ééé"},
		{"multibyte bytes over limit but runes under", "研究研究", 6, "研究研究"},
		{"mixed", "aé研x", 3, "aé研"},
		{"empty", "", 5, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateRunes(tc.input, tc.max)
			if got != tc.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateRunes(%q, %d) produced invalid UTF-8", tc.input, tc.max)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two  three\nfour"); got != 4 {
		t.Errorf("WordCount = %d, want 4", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Errorf("WordCount of blanks = %d, want 0", got)
	}
}
