package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/repository"
	"ytresearch-backend/internal/services"
	"ytresearch-backend/internal/ytutil"
)

// State is the terminal outcome of one video's run through the pipeline.
type State string

const (
	StateInvalidReference      State = "invalid_reference"
	StateAlreadyExists         State = "already_exists"
	StateMetadataFailed        State = "metadata_failed"
	StateNoCaptions            State = "no_captions"             // partial: record exists, captions absent
	StateCompletedNoExtraction State = "completed_no_extraction" // partial: transcript stored, coding absent
	StateAnalyzed              State = "analyzed"                // full success
	StateFailed                State = "failed"                  // storage fault, pipeline-fatal for this video
)

// Stage names published while a video moves through the pipeline.
const (
	StageNormalized       = "normalized"
	StageMetadataFetched  = "metadata_fetched"
	StageCaptionFailed    = "caption_failed"
	StageTranscriptStored = "transcript_stored"
	StageExtractionFailed = "extraction_failed"
	StageExtractionStored = "extraction_stored"
	StageDone             = "done"
)

// ProgressFunc receives stage transitions for one video. May be nil.
type ProgressFunc func(stage, detail string)

type VideoStore interface {
	Create(ctx context.Context, v *models.Video) error
	GetByVideoID(ctx context.Context, videoID string) (*models.Video, error)
	Update(ctx context.Context, videoID string, upd models.VideoUpdate) (*models.Video, error)
}

type TranscriptStore interface {
	Create(ctx context.Context, videoPK int64, t *models.Transcript) error
	GetByVideoPK(ctx context.Context, videoPK int64) (*models.Transcript, error)
}

type MotifStore interface {
	Create(ctx context.Context, videoPK int64, transcriptPK *int64, m *models.MotifCodingRecord) error
	GetByVideoPK(ctx context.Context, videoPK int64) (*models.MotifCodingRecord, error)
}

// Extractor runs schema-constrained motif coding over a stored transcript.
type Extractor interface {
	CodeTranscript(ctx context.Context, transcript string, input services.CodingInput) (*services.CodingOutput, error)
	EstimateUsage(transcript string) models.CostEstimate
	ModelName() string
}

// QuotaReader exposes the cumulative YouTube API quota spent so far. Nil
// when only unauthenticated strategies are configured.
type QuotaReader interface {
	QuotaUsed() int64
}

// Pipeline orchestrates one video at a time: normalize, dedupe, fetch
// metadata, acquire captions, extract motifs. Downstream failures become
// terminal statuses on the record, never thrown errors; only storage faults
// abort a video.
type Pipeline struct {
	videos      VideoStore
	transcripts TranscriptStore
	motifs      MotifStore
	metadata    services.MetadataFetcher
	captions    services.CaptionAcquirer
	extractor   Extractor
	quota       QuotaReader
}

func New(
	videos VideoStore,
	transcripts TranscriptStore,
	motifs MotifStore,
	metadata services.MetadataFetcher,
	captions services.CaptionAcquirer,
	extractor Extractor,
	quota QuotaReader,
) *Pipeline {
	return &Pipeline{
		videos:      videos,
		transcripts: transcripts,
		motifs:      motifs,
		metadata:    metadata,
		captions:    captions,
		extractor:   extractor,
		quota:       quota,
	}
}

// ProcessBatch runs the per-video state machine sequentially in input
// order. One video's failure never aborts the batch; every submitted URL
// produces exactly one outcome.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string, notify ProgressFunc) []models.IngestOutcome {
	outcomes := make([]models.IngestOutcome, 0, len(urls))
	for _, url := range urls {
		outcomes = append(outcomes, p.ProcessVideo(ctx, url, notify))
	}
	return outcomes
}

// ProcessVideo runs one URL through the full state machine and reports
// which terminal state was reached.
func (p *Pipeline) ProcessVideo(ctx context.Context, url string, notify ProgressFunc) models.IngestOutcome {
	outcome := models.IngestOutcome{URL: url}
	defer func() {
		if p.quota != nil {
			outcome.QuotaUsed = p.quota.QuotaUsed()
		}
	}()

	// start -> normalized
	videoID, ok := ytutil.ExtractVideoID(url)
	if !ok {
		outcome.State = string(StateInvalidReference)
		outcome.Error = "not a recognizable YouTube video reference"
		return outcome
	}
	outcome.VideoID = videoID
	p.progress(notify, StageNormalized, videoID)

	// Idempotency check before any remote call.
	existing, err := p.videos.GetByVideoID(ctx, videoID)
	if err != nil {
		return p.storageFault(outcome, fmt.Errorf("lookup failed: %w", err))
	}
	if existing != nil {
		outcome.State = string(StateAlreadyExists)
		if existing.Title != nil {
			outcome.Title = *existing.Title
		}
		return outcome
	}

	// normalized -> metadata_fetched
	meta, err := p.metadata.GetVideoMetadata(ctx, videoID)
	if err != nil || meta == nil {
		outcome.State = string(StateMetadataFailed)
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Error = "video not found"
		}
		return outcome
	}
	outcome.Title = meta.Title
	p.progress(notify, StageMetadataFetched, meta.Title)

	video := videoFromMetadata(url, meta)
	if err := p.videos.Create(ctx, video); err != nil {
		if errors.Is(err, repository.ErrDuplicateVideo) {
			outcome.State = string(StateAlreadyExists)
			return outcome
		}
		return p.storageFault(outcome, fmt.Errorf("create failed: %w", err))
	}

	// metadata_fetched -> {caption_failed | transcript_stored}
	captions, err := p.captions.GetCaptions(ctx, videoID)
	if err != nil {
		reason := services.CaptionReason(err)
		msg := err.Error()
		if _, uerr := p.videos.Update(ctx, videoID, models.VideoUpdate{
			Status:       strPtr(models.StatusNoCaptions),
			ErrorMessage: &msg,
		}); uerr != nil {
			return p.storageFault(outcome, fmt.Errorf("status update failed: %w", uerr))
		}
		p.progress(notify, StageCaptionFailed, string(reason))
		outcome.State = string(StateNoCaptions)
		outcome.Error = msg
		return outcome
	}

	transcript := &models.Transcript{
		VideoPK:         video.ID,
		Language:        strPtr(captions.Language),
		IsAutoGenerated: captions.IsAutoGenerated,
		RawText:         captions.Text,
		WordCount:       captions.WordCount,
	}
	if err := p.transcripts.Create(ctx, video.ID, transcript); err != nil {
		return p.storageFault(outcome, fmt.Errorf("transcript store failed: %w", err))
	}
	p.progress(notify, StageTranscriptStored, fmt.Sprintf("%d words via %s", captions.WordCount, captions.Source))

	// {transcript_stored} -> {extraction_failed | extraction_stored}
	state, err := p.extract(ctx, video, transcript, meta, &outcome, notify)
	if err != nil {
		return p.storageFault(outcome, err)
	}
	outcome.State = string(state)
	p.progress(notify, StageDone, string(state))
	return outcome
}

func (p *Pipeline) extract(ctx context.Context, video *models.Video, transcript *models.Transcript, meta *models.VideoMetadata, outcome *models.IngestOutcome, notify ProgressFunc) (State, error) {
	if p.extractor == nil {
		return StateCompletedNoExtraction, nil
	}

	// A coding may already exist if an earlier run stored one for this
	// video. Never produce a second.
	if existing, err := p.motifs.GetByVideoPK(ctx, video.ID); err != nil {
		return "", fmt.Errorf("coding lookup failed: %w", err)
	} else if existing != nil {
		return StateAnalyzed, nil
	}

	output, err := p.extractor.CodeTranscript(ctx, transcript.RawText, services.CodingInput{
		Title:    meta.Title,
		Channel:  meta.ChannelName,
		Duration: meta.Duration,
	})
	if err != nil {
		log.Printf("Extraction failed for %s: %v", video.VideoID, err)
		p.progress(notify, StageExtractionFailed, err.Error())
		outcome.Error = err.Error()
		return StateCompletedNoExtraction, nil
	}

	record := &models.MotifCodingRecord{
		CodingResults: output.RawJSON,
		ModelUsed:     output.ModelUsed,
		TokensUsed:    output.TokensUsed,
		ProcessingMS:  output.ProcessingMS,
	}
	if err := p.motifs.Create(ctx, video.ID, &transcript.ID, record); err != nil {
		return "", fmt.Errorf("coding store failed: %w", err)
	}
	p.progress(notify, StageExtractionStored, output.ModelUsed)

	est := p.extractor.EstimateUsage(transcript.RawText)
	outcome.CostUSD = &est.EstimatedCostUSD
	outcome.TokensUsed = output.TokensUsed
	return StateAnalyzed, nil
}

func (p *Pipeline) storageFault(outcome models.IngestOutcome, err error) models.IngestOutcome {
	log.Printf("Pipeline storage fault for %s: %v", outcome.URL, err)
	outcome.State = string(StateFailed)
	outcome.Error = err.Error()
	return outcome
}

func (p *Pipeline) progress(notify ProgressFunc, stage, detail string) {
	if notify != nil {
		notify(stage, detail)
	}
}

func videoFromMetadata(url string, meta *models.VideoMetadata) *models.Video {
	video := &models.Video{
		VideoID:      meta.VideoID,
		URL:          url,
		Title:        strPtrOrNil(meta.Title),
		ChannelName:  strPtrOrNil(meta.ChannelName),
		ChannelID:    strPtrOrNil(meta.ChannelID),
		Description:  strPtrOrNil(meta.Description),
		PublishedAt:  meta.PublishedAt,
		Language:     strPtrOrNil(meta.Language),
		ViewCount:    meta.ViewCount,
		LikeCount:    meta.LikeCount,
		CommentCount: meta.CommentCount,
		Status:       models.StatusProcessing,
	}
	if meta.Duration > 0 {
		video.Duration = &meta.Duration
	}
	return video
}

func strPtr(s string) *string { return &s }

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
