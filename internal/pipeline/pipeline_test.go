package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/services"
)

// fakeStore is an in-memory persistence gateway honoring the same contract
// as the pgx repositories, including the transcript-create side effect on
// the owning video.
type fakeStore struct {
	nextID      int64
	videos      map[string]*models.Video
	transcripts map[int64]*models.Transcript
	codings     map[int64]*models.MotifCodingRecord
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:      make(map[string]*models.Video),
		transcripts: make(map[int64]*models.Transcript),
		codings:     make(map[int64]*models.MotifCodingRecord),
	}
}

func (s *fakeStore) Create(ctx context.Context, v *models.Video) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.videos[v.VideoID]; ok {
		return errors.New("duplicate")
	}
	s.nextID++
	v.ID = s.nextID
	s.videos[v.VideoID] = v
	return nil
}

func (s *fakeStore) GetByVideoID(ctx context.Context, videoID string) (*models.Video, error) {
	return s.videos[videoID], nil
}

func (s *fakeStore) Update(ctx context.Context, videoID string, upd models.VideoUpdate) (*models.Video, error) {
	v, ok := s.videos[videoID]
	if !ok {
		return nil, nil
	}
	if upd.Status != nil {
		v.Status = *upd.Status
	}
	if upd.HasCaptions != nil {
		v.HasCaptions = *upd.HasCaptions
	}
	if upd.ErrorMessage != nil {
		v.ErrorMessage = upd.ErrorMessage
	}
	return v, nil
}

func (s *fakeStore) videoByPK(pk int64) *models.Video {
	for _, v := range s.videos {
		if v.ID == pk {
			return v
		}
	}
	return nil
}

// TranscriptStore: creating a transcript flips the owning video to
// completed with captions, same as the SQL gateway does in one tx.
type fakeTranscripts struct{ store *fakeStore }

func (s fakeTranscripts) Create(ctx context.Context, videoPK int64, t *models.Transcript) error {
	s.store.nextID++
	t.ID = s.store.nextID
	t.VideoPK = videoPK
	s.store.transcripts[videoPK] = t
	if v := s.store.videoByPK(videoPK); v != nil {
		v.HasCaptions = true
		v.Status = models.StatusCompleted
	}
	return nil
}

func (s fakeTranscripts) GetByVideoPK(ctx context.Context, videoPK int64) (*models.Transcript, error) {
	return s.store.transcripts[videoPK], nil
}

type fakeMotifs struct{ store *fakeStore }

func (s fakeMotifs) Create(ctx context.Context, videoPK int64, transcriptPK *int64, m *models.MotifCodingRecord) error {
	s.store.nextID++
	m.ID = s.store.nextID
	m.VideoPK = videoPK
	m.TranscriptPK = transcriptPK
	s.store.codings[videoPK] = m
	return nil
}

func (s fakeMotifs) GetByVideoPK(ctx context.Context, videoPK int64) (*models.MotifCodingRecord, error) {
	return s.store.codings[videoPK], nil
}

type fakeMetadata struct {
	meta  *models.VideoMetadata
	err   error
	calls int
}

func (f *fakeMetadata) GetVideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	f.calls++
	return f.meta, f.err
}

type fakeCaptions struct {
	result *services.CaptionResult
	err    error
}

func (f *fakeCaptions) GetCaptions(ctx context.Context, videoID string) (*services.CaptionResult, error) {
	return f.result, f.err
}

type fakeExtractor struct {
	output *services.CodingOutput
	err    error
	calls  int
}

func (f *fakeExtractor) CodeTranscript(ctx context.Context, transcript string, input services.CodingInput) (*services.CodingOutput, error) {
	f.calls++
	return f.output, f.err
}

func (f *fakeExtractor) EstimateUsage(transcript string) models.CostEstimate {
	return models.CostEstimate{EstimatedTotalTokens: 1000, EstimatedCostUSD: 0.0004}
}

func (f *fakeExtractor) ModelName() string { return "test-model" }

const testURL = "https://www.youtube.com/watch?v=ABCDEFGHIJK"

func testMetadata() *models.VideoMetadata {
	return &models.VideoMetadata{
		VideoID:     "ABCDEFGHIJK",
		Title:       "Strength Training Basics",
		ChannelName: "FitLab",
		Duration:    600,
		Language:    "en",
	}
}

func testPipeline(store *fakeStore, meta *fakeMetadata, captions *fakeCaptions, extractor *fakeExtractor) *Pipeline {
	return New(store, fakeTranscripts{store}, fakeMotifs{store}, meta, captions, extractor, nil)
}

func TestProcessVideoFullSuccess(t *testing.T) {
	store := newFakeStore()
	transcript := strings.TrimSpace(strings.Repeat("word ", 500))
	extractor := &fakeExtractor{output: &services.CodingOutput{
		RawJSON:      json.RawMessage(`{"primary_topic":"strength"}`),
		ModelUsed:    "test-model",
		TokensUsed:   1234,
		ProcessingMS: 800,
	}}
	p := testPipeline(store,
		&fakeMetadata{meta: testMetadata()},
		&fakeCaptions{result: &services.CaptionResult{
			Text: transcript, Language: "en", IsAutoGenerated: false, WordCount: 500, Source: "scrape",
		}},
		extractor,
	)

	outcome := p.ProcessVideo(context.Background(), testURL, nil)

	if outcome.State != string(StateAnalyzed) {
		t.Fatalf("State = %q, want %q (error: %s)", outcome.State, StateAnalyzed, outcome.Error)
	}
	if outcome.CostUSD == nil || *outcome.CostUSD <= 0 {
		t.Error("expected a positive cost figure on full success")
	}
	if outcome.TokensUsed != 1234 {
		t.Errorf("TokensUsed = %d, want provider-reported 1234", outcome.TokensUsed)
	}

	v := store.videos["ABCDEFGHIJK"]
	if v == nil {
		t.Fatal("expected a stored video record")
	}
	if v.Status != models.StatusCompleted || !v.HasCaptions {
		t.Errorf("video status = %s/%v, want completed with captions", v.Status, v.HasCaptions)
	}
	tr := store.transcripts[v.ID]
	if tr == nil {
		t.Fatal("expected a stored transcript")
	}
	if tr.WordCount != 500 {
		t.Errorf("WordCount = %d, want 500", tr.WordCount)
	}
	coding := store.codings[v.ID]
	if coding == nil {
		t.Fatal("expected exactly one stored coding")
	}
	if coding.TranscriptPK == nil || *coding.TranscriptPK != tr.ID {
		t.Error("coding should reference the stored transcript")
	}
}

func TestProcessVideoInvalidReference(t *testing.T) {
	store := newFakeStore()
	meta := &fakeMetadata{meta: testMetadata()}
	p := testPipeline(store, meta, &fakeCaptions{}, &fakeExtractor{})

	for _, url := range []string{"not-a-url", "https://invalid.com/video"} {
		outcome := p.ProcessVideo(context.Background(), url, nil)
		if outcome.State != string(StateInvalidReference) {
			t.Errorf("State for %q = %q, want %q", url, outcome.State, StateInvalidReference)
		}
	}
	if len(store.videos) != 0 {
		t.Error("invalid references must not create records")
	}
	if meta.calls != 0 {
		t.Error("invalid references must not reach the metadata service")
	}
}

func TestProcessVideoAlreadyExists(t *testing.T) {
	store := newFakeStore()
	meta := &fakeMetadata{meta: testMetadata()}
	captions := &fakeCaptions{result: &services.CaptionResult{Text: "a b c", Language: "en", WordCount: 3}}
	extractor := &fakeExtractor{output: &services.CodingOutput{RawJSON: json.RawMessage(`{}`)}}
	p := testPipeline(store, meta, captions, extractor)

	first := p.ProcessVideo(context.Background(), testURL, nil)
	if first.State != string(StateAnalyzed) {
		t.Fatalf("first run: State = %q", first.State)
	}
	metaCallsAfterFirst := meta.calls

	second := p.ProcessVideo(context.Background(), testURL, nil)
	if second.State != string(StateAlreadyExists) {
		t.Errorf("second run: State = %q, want %q", second.State, StateAlreadyExists)
	}
	if len(store.videos) != 1 {
		t.Errorf("expected 1 video record, got %d", len(store.videos))
	}
	if meta.calls != metaCallsAfterFirst {
		t.Error("duplicate check must run before any metadata call")
	}
}

func TestProcessVideoMetadataFailed(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store,
		&fakeMetadata{err: errors.New("upstream 500")},
		&fakeCaptions{}, &fakeExtractor{})

	outcome := p.ProcessVideo(context.Background(), testURL, nil)
	if outcome.State != string(StateMetadataFailed) {
		t.Errorf("State = %q, want %q", outcome.State, StateMetadataFailed)
	}
	if len(store.videos) != 0 {
		t.Error("metadata failure must not create a record")
	}
}

func TestProcessVideoMetadataAbsent(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store, &fakeMetadata{}, &fakeCaptions{}, &fakeExtractor{})

	outcome := p.ProcessVideo(context.Background(), testURL, nil)
	if outcome.State != string(StateMetadataFailed) {
		t.Errorf("State = %q, want %q", outcome.State, StateMetadataFailed)
	}
}

func TestProcessVideoNoCaptions(t *testing.T) {
	store := newFakeStore()
	extractor := &fakeExtractor{}
	p := testPipeline(store,
		&fakeMetadata{meta: testMetadata()},
		&fakeCaptions{err: &services.CaptionError{
			Reason: services.FailureDisabled,
			Err:    errors.New("subtitles are disabled for this video"),
		}},
		extractor,
	)

	outcome := p.ProcessVideo(context.Background(), testURL, nil)

	if outcome.State != string(StateNoCaptions) {
		t.Fatalf("State = %q, want %q", outcome.State, StateNoCaptions)
	}
	if outcome.Error == "" {
		t.Error("expected a non-empty error on the outcome")
	}

	v := store.videos["ABCDEFGHIJK"]
	if v == nil {
		t.Fatal("partial success still creates the video record")
	}
	if v.Status != models.StatusNoCaptions {
		t.Errorf("video status = %q, want %q", v.Status, models.StatusNoCaptions)
	}
	if v.ErrorMessage == nil || *v.ErrorMessage == "" {
		t.Error("expected error_message on the record")
	}
	if len(store.transcripts) != 0 || len(store.codings) != 0 {
		t.Error("no transcript or coding may exist without captions")
	}
	if extractor.calls != 0 {
		t.Error("extractor must not run without a transcript")
	}
}

func TestProcessVideoExtractionFailed(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store,
		&fakeMetadata{meta: testMetadata()},
		&fakeCaptions{result: &services.CaptionResult{Text: "a b c", Language: "en", WordCount: 3}},
		&fakeExtractor{err: &services.ExtractionError{
			Reason: services.ExtractionSchemaViolation,
			Err:    errors.New("bad payload"),
		}},
	)

	outcome := p.ProcessVideo(context.Background(), testURL, nil)

	if outcome.State != string(StateCompletedNoExtraction) {
		t.Fatalf("State = %q, want %q", outcome.State, StateCompletedNoExtraction)
	}

	v := store.videos["ABCDEFGHIJK"]
	if v.Status != models.StatusCompleted || !v.HasCaptions {
		t.Errorf("extraction failure must leave the video completed, got %s", v.Status)
	}
	if store.transcripts[v.ID] == nil {
		t.Error("transcript must be preserved")
	}
	if len(store.codings) != 0 {
		t.Error("no coding may be stored on extraction failure")
	}
}

func TestProcessVideoStorageFault(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	p := testPipeline(store, &fakeMetadata{meta: testMetadata()}, &fakeCaptions{}, &fakeExtractor{})

	outcome := p.ProcessVideo(context.Background(), testURL, nil)
	if outcome.State != string(StateFailed) {
		t.Errorf("State = %q, want %q", outcome.State, StateFailed)
	}
}

func TestProcessBatchIndependentOutcomes(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store,
		&fakeMetadata{meta: testMetadata()},
		&fakeCaptions{result: &services.CaptionResult{Text: "a b", Language: "en", WordCount: 2}},
		&fakeExtractor{output: &services.CodingOutput{RawJSON: json.RawMessage(`{}`)}},
	)

	urls := []string{"not-a-url", testURL, testURL}
	outcomes := p.ProcessBatch(context.Background(), urls, nil)

	if len(outcomes) != 3 {
		t.Fatalf("expected one outcome per input, got %d", len(outcomes))
	}
	want := []State{StateInvalidReference, StateAnalyzed, StateAlreadyExists}
	for i, w := range want {
		if outcomes[i].State != string(w) {
			t.Errorf("outcome[%d].State = %q, want %q", i, outcomes[i].State, w)
		}
		if outcomes[i].URL != urls[i] {
			t.Errorf("outcome[%d].URL = %q, want input order preserved", i, outcomes[i].URL)
		}
	}
}

func TestProcessVideoReportsProgress(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store,
		&fakeMetadata{meta: testMetadata()},
		&fakeCaptions{result: &services.CaptionResult{Text: "a b", Language: "en", WordCount: 2, Source: "scrape"}},
		&fakeExtractor{output: &services.CodingOutput{RawJSON: json.RawMessage(`{}`)}},
	)

	var stages []string
	p.ProcessVideo(context.Background(), testURL, func(stage, detail string) {
		stages = append(stages, stage)
	})

	want := []string{StageNormalized, StageMetadataFetched, StageTranscriptStored, StageExtractionStored, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, stages[i], want[i])
		}
	}
}
