package services

import (
	"context"
	"errors"
	"testing"
)

type fakeAcquirer struct {
	result *CaptionResult
	err    error
	calls  int
}

func (f *fakeAcquirer) GetCaptions(ctx context.Context, videoID string) (*CaptionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestFallbackAcquirerFirstSourceWins(t *testing.T) {
	official := &fakeAcquirer{result: &CaptionResult{Text: "official text", Language: "en"}}
	scrape := &fakeAcquirer{result: &CaptionResult{Text: "scraped text", Language: "en"}}

	f := NewFallbackAcquirer([]string{"official", "scrape"}, official, scrape)
	result, err := f.GetCaptions(context.Background(), "ABCDEFGHIJK")
	if err != nil {
		t.Fatalf("GetCaptions() error: %v", err)
	}
	if result.Text != "official text" {
		t.Errorf("got %q, want first source's text", result.Text)
	}
	if result.Source != "official" {
		t.Errorf("Source = %q, want official", result.Source)
	}
	if scrape.calls != 0 {
		t.Errorf("second source called %d times, want 0", scrape.calls)
	}
}

func TestFallbackAcquirerFallsThrough(t *testing.T) {
	official := &fakeAcquirer{err: &CaptionError{Reason: FailureDownloadFailed, Err: errors.New("boom")}}
	scrape := &fakeAcquirer{result: &CaptionResult{Text: "scraped text", Language: "en"}}

	f := NewFallbackAcquirer([]string{"official", "scrape"}, official, scrape)
	result, err := f.GetCaptions(context.Background(), "ABCDEFGHIJK")
	if err != nil {
		t.Fatalf("GetCaptions() error: %v", err)
	}
	if result.Source != "scrape" {
		t.Errorf("Source = %q, want scrape", result.Source)
	}
	if official.calls != 1 {
		t.Errorf("first source called %d times, want 1", official.calls)
	}
}

func TestFallbackAcquirerReturnsLastError(t *testing.T) {
	official := &fakeAcquirer{err: &CaptionError{Reason: FailureDownloadFailed, Err: errors.New("api down")}}
	scrape := &fakeAcquirer{err: &CaptionError{Reason: FailureNoTracks, Err: errors.New("none")}}

	f := NewFallbackAcquirer([]string{"official", "scrape"}, official, scrape)
	_, err := f.GetCaptions(context.Background(), "ABCDEFGHIJK")
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
	if CaptionReason(err) != FailureNoTracks {
		t.Errorf("CaptionReason() = %q, want the last source's reason", CaptionReason(err))
	}
}

func TestFallbackAcquirerSkipsNilAndUnknownSources(t *testing.T) {
	scrape := &fakeAcquirer{result: &CaptionResult{Text: "scraped text"}}

	// Official configured in the order but not available (no credentials).
	f := NewFallbackAcquirer([]string{"official", "bogus", "scrape"}, nil, scrape)
	result, err := f.GetCaptions(context.Background(), "ABCDEFGHIJK")
	if err != nil {
		t.Fatalf("GetCaptions() error: %v", err)
	}
	if result.Source != "scrape" {
		t.Errorf("Source = %q, want scrape", result.Source)
	}
}

func TestFallbackAcquirerNoSources(t *testing.T) {
	f := NewFallbackAcquirer(nil, nil, nil)
	_, err := f.GetCaptions(context.Background(), "ABCDEFGHIJK")
	if err == nil {
		t.Fatal("expected error with no configured sources")
	}
}

func TestCaptionReasonUntyped(t *testing.T) {
	if got := CaptionReason(errors.New("plain")); got != FailureDownloadFailed {
		t.Errorf("CaptionReason() = %q, want %q for untyped errors", got, FailureDownloadFailed)
	}
}
