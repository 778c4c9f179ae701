package ytutil

import (
	"regexp"
	"strings"
)

var (
	srtSequenceRe  = regexp.MustCompile(`(?m)^\d+\r?\n`)
	srtTimestampRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}\r?\n`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// SRTToPlainText strips sequence numbers and timing lines from SRT subtitle
// content, leaving the spoken text in order. Runs of three or more newlines
// collapse to a single blank line.
func SRTToPlainText(srt string) string {
	text := srtSequenceRe.ReplaceAllString(srt, "")
	text = srtTimestampRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CollapseWhitespace squashes any whitespace run to a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// WordCount is the whitespace-token count used for every stored transcript.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// TruncateRunes cuts s to at most max characters. The cut lands on a rune
// boundary, so the result is always valid UTF-8.
func TruncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
