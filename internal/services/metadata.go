package services

import (
	"context"
	"fmt"
	"log"

	yt "github.com/kkdai/youtube/v2"

	"ytresearch-backend/internal/models"
)

// MetadataFetcher yields descriptive metadata for a video ID. The Data API
// implementation is preferred; this package also provides a scraping-based
// one for deployments without API credentials.
type MetadataFetcher interface {
	GetVideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}

// WatchPageMetadataService fetches metadata through the public player
// endpoint. No credential, no quota cost; like counts are not exposed
// there, so engagement fields beyond views stay absent.
type WatchPageMetadataService struct {
	ytClient *yt.Client
}

func NewWatchPageMetadataService() *WatchPageMetadataService {
	return &WatchPageMetadataService{ytClient: &yt.Client{}}
}

func (s *WatchPageMetadataService) GetVideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	meta := &models.VideoMetadata{
		VideoID:     videoID,
		Title:       video.Title,
		ChannelID:   video.ChannelID,
		ChannelName: video.Author,
		Description: truncateString(video.Description, 500),
		Duration:    int(video.Duration.Seconds()),
		Language:    "unknown",
	}

	if !video.PublishDate.IsZero() {
		published := video.PublishDate
		meta.PublishedAt = &published
	}
	if video.Views > 0 {
		views := int64(video.Views)
		meta.ViewCount = &views
	}

	log.Printf("Watch-page metadata fetched for %s: %s", videoID, meta.Title)
	return meta, nil
}

// FallbackMetadataFetcher tries the primary fetcher and falls back to the
// secondary when the primary errors (not when the video simply does not
// exist — a nil, nil from the primary is authoritative).
type FallbackMetadataFetcher struct {
	Primary   MetadataFetcher
	Secondary MetadataFetcher
}

func (f *FallbackMetadataFetcher) GetVideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	meta, err := f.Primary.GetVideoMetadata(ctx, videoID)
	if err == nil {
		return meta, nil
	}
	if f.Secondary == nil {
		return nil, err
	}
	log.Printf("Primary metadata fetch failed for %s, falling back: %v", videoID, err)
	return f.Secondary.GetVideoMetadata(ctx, videoID)
}
