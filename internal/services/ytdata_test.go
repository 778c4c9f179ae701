package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/api/googleapi"
)

func TestSelectBestTrack(t *testing.T) {
	manualEN := CaptionTrack{ID: "a", Language: "en", IsAutoGenerated: false}
	manualENUS := CaptionTrack{ID: "b", Language: "en-US", IsAutoGenerated: false}
	manualES := CaptionTrack{ID: "c", Language: "es", IsAutoGenerated: false}
	autoEN := CaptionTrack{ID: "d", Language: "en", IsAutoGenerated: true}
	autoFR := CaptionTrack{ID: "e", Language: "fr", IsAutoGenerated: true}

	tests := []struct {
		name   string
		tracks []CaptionTrack
		wantID string
	}{
		{
			name:   "manual english beats everything",
			tracks: []CaptionTrack{autoFR, autoEN, manualES, manualEN},
			wantID: "a",
		},
		{
			name:   "english variant counts as english",
			tracks: []CaptionTrack{manualES, manualENUS},
			wantID: "b",
		},
		{
			name:   "manual non-english beats auto english",
			tracks: []CaptionTrack{autoEN, manualES},
			wantID: "c",
		},
		{
			name:   "auto english beats auto other",
			tracks: []CaptionTrack{autoFR, autoEN},
			wantID: "d",
		},
		{
			name:   "auto other is last resort",
			tracks: []CaptionTrack{autoFR},
			wantID: "e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectBestTrack(tt.tracks)
			if got == nil {
				t.Fatal("expected a track, got nil")
			}
			if got.ID != tt.wantID {
				t.Errorf("selectBestTrack() picked %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestSelectBestTrackEmpty(t *testing.T) {
	if got := selectBestTrack(nil); got != nil {
		t.Errorf("expected nil for empty track list, got %+v", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("hello world", 5); got != "hello" {
		t.Errorf("truncateString() = %q, want %q", got, "hello")
	}
	if got := truncateString("short", 100); got != "short" {
		t.Errorf("truncateString() = %q, want unchanged input", got)
	}

	got := truncateString(strings.Repeat("研", 200), 500)
	if !utf8.ValidString(got) {
		t.Errorf("truncated description is invalid UTF-8 (len=%d)", len(got))
	}
	if n := utf8.RuneCountInString(got); n != 200 {
		t.Errorf("rune count = %d, want all 200 runes kept", n)
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want CaptionFailure
	}{
		{
			"quota exhausted",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}},
			FailureAccessDenied,
		},
		{
			"rate limited",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			FailureAccessDenied,
		},
		{
			"third-party downloads forbidden",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "forbidden"}}},
			FailureDisabled,
		},
		{
			"forbidden without reason detail",
			&googleapi.Error{Code: 403},
			FailureDisabled,
		},
		{
			"video gone",
			&googleapi.Error{Code: 404},
			FailureVideoNotFound,
		},
		{
			"plain network error",
			errors.New("connection reset"),
			FailureDownloadFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyAPIError(tc.err)
			if reason := CaptionReason(got); reason != tc.want {
				t.Errorf("classifyAPIError reason = %q, want %q", reason, tc.want)
			}
		})
	}
}
