package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestJob is the unit queued on Redis for asynchronous ingestion.
type IngestJob struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type IngestRequest struct {
	URL string `json:"url"`
}

type BatchIngestRequest struct {
	URLs []string `json:"urls"`
}

// IngestOutcome is the per-item result of a batch submission. Every
// submitted URL produces exactly one outcome; partial successes are
// outcomes, not errors.
type IngestOutcome struct {
	URL        string   `json:"url"`
	VideoID    string   `json:"video_id,omitempty"`
	State      string   `json:"state"` // pipeline.State string form
	Title      string   `json:"title,omitempty"`
	Error      string   `json:"error,omitempty"`
	CostUSD    *float64 `json:"cost_usd,omitempty"`
	QuotaUsed  int64    `json:"quota_used"`
	TokensUsed int      `json:"tokens_used,omitempty"`
}

type BatchIngestResponse struct {
	Outcomes []IngestOutcome `json:"outcomes"`
}

type TokenRequest struct {
	OperatorKey string `json:"operator_key"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// WebSocket progress messages, published via Redis and fanned out by the hub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StageUpdate struct {
	JobID   uuid.UUID `json:"job_id"`
	VideoID string    `json:"video_id,omitempty"`
	Stage   string    `json:"stage"`
	Detail  string    `json:"detail,omitempty"`
}

type JobDone struct {
	JobID   uuid.UUID     `json:"job_id"`
	Outcome IngestOutcome `json:"outcome"`
}

// API error envelope
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
