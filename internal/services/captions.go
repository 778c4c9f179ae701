package services

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// CaptionFailure classifies why a transcript could not be acquired.
type CaptionFailure string

const (
	FailureVideoNotFound  CaptionFailure = "video_not_found"
	FailureNoTracks       CaptionFailure = "no_caption_tracks"
	FailureDisabled       CaptionFailure = "transcripts_disabled"
	FailureAccessDenied   CaptionFailure = "quota_or_access_denied"
	FailureDownloadFailed CaptionFailure = "download_failed"
)

// CaptionError is the typed failure every acquisition strategy returns.
type CaptionError struct {
	Reason CaptionFailure
	Err    error
}

func (e *CaptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("captions unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("captions unavailable (%s)", e.Reason)
}

func (e *CaptionError) Unwrap() error { return e.Err }

// CaptionReason extracts the failure classification from an error chain,
// defaulting to download_failed for anything untyped.
func CaptionReason(err error) CaptionFailure {
	var ce *CaptionError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return FailureDownloadFailed
}

// CaptionResult is the uniform success shape of both strategies.
type CaptionResult struct {
	Text            string
	Language        string
	IsAutoGenerated bool
	WordCount       int
	Source          string // "official" or "scrape"
}

// CaptionAcquirer retrieves the best available transcript for a video ID.
type CaptionAcquirer interface {
	GetCaptions(ctx context.Context, videoID string) (*CaptionResult, error)
}

// FallbackAcquirer tries each configured strategy in order and returns the
// first success. The order is a deployment choice, not policy baked in here.
type FallbackAcquirer struct {
	sources []namedAcquirer
}

type namedAcquirer struct {
	name     string
	acquirer CaptionAcquirer
}

// NewFallbackAcquirer builds the chain from the configured source names.
// Unknown names and sources with a nil acquirer (e.g. the official strategy
// when no credentials are configured) are skipped.
func NewFallbackAcquirer(order []string, official, scrape CaptionAcquirer) *FallbackAcquirer {
	f := &FallbackAcquirer{}
	for _, name := range order {
		switch name {
		case "official":
			if official != nil {
				f.sources = append(f.sources, namedAcquirer{name, official})
			}
		case "scrape":
			if scrape != nil {
				f.sources = append(f.sources, namedAcquirer{name, scrape})
			}
		default:
			log.Printf("Unknown caption source %q ignored", name)
		}
	}
	return f
}

func (f *FallbackAcquirer) GetCaptions(ctx context.Context, videoID string) (*CaptionResult, error) {
	if len(f.sources) == 0 {
		return nil, &CaptionError{Reason: FailureDownloadFailed, Err: errors.New("no caption sources configured")}
	}

	var lastErr error
	for _, src := range f.sources {
		result, err := src.acquirer.GetCaptions(ctx, videoID)
		if err == nil {
			result.Source = src.name
			return result, nil
		}
		log.Printf("Caption source %s failed for %s: %v", src.name, videoID, err)
		lastErr = err
	}
	return nil, lastErr
}
