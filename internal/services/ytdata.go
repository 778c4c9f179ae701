package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/ytutil"
)

// Data API quota costs. videos.list is cheap; captions.download is the
// single most expensive call in the system. Default daily budget is 10,000
// units; callers enforce ceilings externally via QuotaUsed.
const (
	quotaVideosList      = 1
	quotaCaptionsList    = 50
	quotaCaptionDownload = 200
)

// YouTubeDataService wraps the official YouTube Data API v3: metadata
// fetching, caption track listing, and caption downloading.
type YouTubeDataService struct {
	svc       *youtube.Service
	quotaUsed atomic.Int64
}

func NewYouTubeDataService(svc *youtube.Service) *YouTubeDataService {
	return &YouTubeDataService{svc: svc}
}

// QuotaUsed reports cumulative quota units spent since construction. Safe
// to read after every remote call.
func (s *YouTubeDataService) QuotaUsed() int64 {
	return s.quotaUsed.Load()
}

// GetVideoMetadata fetches snippet, duration, and statistics for one video.
// Cost: 1 unit. Returns (nil, nil) when the video does not exist.
func (s *YouTubeDataService) GetVideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	resp, err := s.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).Context(ctx).Do()
	s.quotaUsed.Add(quotaVideosList)
	if err != nil {
		return nil, fmt.Errorf("videos.list failed: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	snippet := item.Snippet

	language := snippet.DefaultAudioLanguage
	if language == "" {
		language = snippet.DefaultLanguage
	}
	if language == "" {
		language = "unknown"
	}

	meta := &models.VideoMetadata{
		VideoID:     videoID,
		Title:       snippet.Title,
		ChannelID:   snippet.ChannelId,
		ChannelName: snippet.ChannelTitle,
		Description: truncateString(snippet.Description, 500),
		Duration:    ytutil.ParseISODuration(item.ContentDetails.Duration),
		Language:    language,
	}

	if snippet.PublishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
			meta.PublishedAt = &ts
		}
	}

	if item.Statistics != nil {
		meta.ViewCount = int64Ptr(item.Statistics.ViewCount)
		meta.LikeCount = int64Ptr(item.Statistics.LikeCount)
		meta.CommentCount = int64Ptr(item.Statistics.CommentCount)
	}

	log.Printf("Metadata fetched for %s: %s (quota: %d)", videoID, meta.Title, s.QuotaUsed())
	return meta, nil
}

// CaptionTrack is one available caption track for a video.
type CaptionTrack struct {
	ID              string
	Language        string
	Name            string
	IsAutoGenerated bool
}

// ListCaptionTracks lists the available tracks. Cost: 50 units — only call
// when a download is actually intended.
func (s *YouTubeDataService) ListCaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	resp, err := s.svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	s.quotaUsed.Add(quotaCaptionsList)
	if err != nil {
		return nil, classifyAPIError(err)
	}

	tracks := make([]CaptionTrack, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, CaptionTrack{
			ID:              item.Id,
			Language:        item.Snippet.Language,
			Name:            item.Snippet.Name,
			IsAutoGenerated: item.Snippet.TrackKind == "asr",
		})
	}
	return tracks, nil
}

// selectBestTrack applies the fixed priority:
// manual English > manual any language > auto English > auto any language.
// Within a tier the first listed track wins.
func selectBestTrack(tracks []CaptionTrack) *CaptionTrack {
	var manualAny, autoAny *CaptionTrack
	for i := range tracks {
		t := &tracks[i]
		if !t.IsAutoGenerated {
			if strings.HasPrefix(t.Language, "en") {
				return t
			}
			if manualAny == nil {
				manualAny = t
			}
		}
	}
	if manualAny != nil {
		return manualAny
	}
	for i := range tracks {
		t := &tracks[i]
		if t.IsAutoGenerated {
			if strings.HasPrefix(t.Language, "en") {
				return t
			}
			if autoAny == nil {
				autoAny = t
			}
		}
	}
	return autoAny
}

// DownloadCaption fetches one track as SRT and strips the markup.
// Cost: 200 units.
func (s *YouTubeDataService) DownloadCaption(ctx context.Context, captionID string) (string, error) {
	resp, err := s.svc.Captions.Download(captionID).Tfmt("srt").Context(ctx).Download()
	s.quotaUsed.Add(quotaCaptionDownload)
	if err != nil {
		return "", classifyAPIError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CaptionError{Reason: FailureDownloadFailed, Err: err}
	}

	text := ytutil.SRTToPlainText(string(body))
	log.Printf("Caption %s downloaded: %d characters (quota: %d)", captionID, len(text), s.QuotaUsed())
	return text, nil
}

// GetCaptions is the authenticated acquisition strategy: list tracks, pick
// the best by the fixed priority, download, strip markup.
func (s *YouTubeDataService) GetCaptions(ctx context.Context, videoID string) (*CaptionResult, error) {
	tracks, err := s.ListCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	best := selectBestTrack(tracks)
	if best == nil {
		return nil, &CaptionError{Reason: FailureNoTracks}
	}

	text, err := s.DownloadCaption(ctx, best.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &CaptionError{Reason: FailureDownloadFailed, Err: errors.New("caption track resolved to empty text")}
	}

	return &CaptionResult{
		Text:            text,
		Language:        best.Language,
		IsAutoGenerated: best.IsAutoGenerated,
		WordCount:       ytutil.WordCount(text),
	}, nil
}

func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 403:
			for _, item := range apiErr.Errors {
				switch item.Reason {
				case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
					return &CaptionError{Reason: FailureAccessDenied, Err: err}
				}
			}
			// Remaining 403s mean the uploader blocked third-party caption
			// downloads, which happens even when the track is listed.
			return &CaptionError{Reason: FailureDisabled, Err: err}
		case 404:
			return &CaptionError{Reason: FailureVideoNotFound, Err: err}
		}
	}
	return &CaptionError{Reason: FailureDownloadFailed, Err: err}
}

func truncateString(s string, max int) string {
	return ytutil.TruncateRunes(s, max)
}

func int64Ptr(v uint64) *int64 {
	n := int64(v)
	return &n
}
