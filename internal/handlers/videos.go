package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/pipeline"
	"ytresearch-backend/internal/repository"
	"ytresearch-backend/internal/worker"
	"ytresearch-backend/internal/ytutil"
)

const maxBatchSize = 50

// transcriptPreviewChars bounds the transcript excerpt in detail responses.
const transcriptPreviewChars = 500

type VideoHandler struct {
	videoRepo      *repository.VideoRepo
	transcriptRepo *repository.TranscriptRepo
	motifRepo      *repository.MotifRepo
	pipeline       *pipeline.Pipeline
	queue          *redis.Client
	extractor      pipeline.Extractor
	quota          pipeline.QuotaReader
}

func NewVideoHandler(
	videoRepo *repository.VideoRepo,
	transcriptRepo *repository.TranscriptRepo,
	motifRepo *repository.MotifRepo,
	p *pipeline.Pipeline,
	queue *redis.Client,
	extractor pipeline.Extractor,
	quota pipeline.QuotaReader,
) *VideoHandler {
	return &VideoHandler{
		videoRepo:      videoRepo,
		transcriptRepo: transcriptRepo,
		motifRepo:      motifRepo,
		pipeline:       p,
		queue:          queue,
		extractor:      extractor,
		quota:          quota,
	}
}

// Ingest enqueues one URL for asynchronous processing and returns the job
// id the client can watch over the websocket.
func (h *VideoHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if _, ok := ytutil.ExtractVideoID(req.URL); !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REFERENCE", "Not a recognizable YouTube video reference", r))
		return
	}

	job := models.IngestJob{
		ID:         uuid.New(),
		URL:        req.URL,
		EnqueuedAt: time.Now(),
	}
	if err := worker.Enqueue(r.Context(), h.queue, job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to enqueue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": "queued",
	})
}

// BatchIngest processes URLs synchronously, one at a time in input order,
// and returns one outcome per submitted URL.
func (h *VideoHandler) BatchIngest(w http.ResponseWriter, r *http.Request) {
	var req models.BatchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "urls must not be empty", r))
		return
	}
	if len(req.URLs) > maxBatchSize {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Too many URLs in one batch", r))
		return
	}

	outcomes := h.pipeline.ProcessBatch(r.Context(), req.URLs, nil)
	writeJSON(w, http.StatusOK, models.BatchIngestResponse{Outcomes: outcomes})
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter models.VideoFilter

	if status := r.URL.Query().Get("status"); status != "" {
		switch status {
		case models.StatusPending, models.StatusProcessing, models.StatusCompleted,
			models.StatusFailed, models.StatusNoCaptions:
			filter.Status = &status
		default:
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown status filter", r))
			return
		}
	}

	if hc := r.URL.Query().Get("has_captions"); hc != "" {
		val := hc == "true"
		if hc != "true" && hc != "false" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "has_captions must be true or false", r))
			return
		}
		filter.HasCaptions = &val
	}

	videos, err := h.videoRepo.List(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to list videos", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"count":  len(videos),
	})
}

// Get returns the full record: video, transcript excerpt and the decoded
// motif coding when present.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	video, err := h.videoRepo.GetByVideoID(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load video", r))
		return
	}
	if video == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video not found", r))
		return
	}

	resp := map[string]interface{}{"video": video}

	transcript, err := h.transcriptRepo.GetByVideoPK(r.Context(), video.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load transcript", r))
		return
	}
	if transcript != nil {
		preview := ytutil.TruncateRunes(transcript.RawText, transcriptPreviewChars)
		resp["transcript"] = map[string]interface{}{
			"language":          transcript.Language,
			"is_auto_generated": transcript.IsAutoGenerated,
			"word_count":        transcript.WordCount,
			"preview":           preview,
		}
	}

	record, err := h.motifRepo.GetByVideoPK(r.Context(), video.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load coding", r))
		return
	}
	if record != nil {
		coding, err := record.Coding()
		if err == nil {
			resp["motif_coding"] = map[string]interface{}{
				"coding":        coding,
				"model_used":    record.ModelUsed,
				"tokens_used":   record.TokensUsed,
				"processing_ms": record.ProcessingMS,
				"created_at":    record.CreatedAt,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	deleted, err := h.videoRepo.Delete(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to delete video", r))
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}

// Estimate returns the advisory extraction cost for a stored transcript.
func (h *VideoHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	video, err := h.videoRepo.GetByVideoID(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load video", r))
		return
	}
	if video == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video not found", r))
		return
	}

	transcript, err := h.transcriptRepo.GetByVideoPK(r.Context(), video.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to load transcript", r))
		return
	}
	if transcript == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video has no transcript", r))
		return
	}

	writeJSON(w, http.StatusOK, h.extractor.EstimateUsage(transcript.RawText))
}

func (h *VideoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.videoRepo.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to compute stats", r))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Quota reports the cumulative YouTube Data API units spent since startup.
func (h *VideoHandler) Quota(w http.ResponseWriter, r *http.Request) {
	var used int64
	authenticated := h.quota != nil
	if authenticated {
		used = h.quota.QuotaUsed()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quota_used":    used,
		"authenticated": authenticated,
	})
}
