package models

import (
	"encoding/json"
	"time"
)

// Quote is a single verbatim quote pulled from a transcript.
type Quote struct {
	Text    string `json:"text"`    // exact wording, max 200 chars
	Context string `json:"context"` // why the quote matters
}

// MotifCoding is the structured coding payload extracted from a transcript.
// Field shapes mirror the response schema sent to the generation service;
// the service guarantees conformance, and decoding into this struct is the
// boundary check on our side.
type MotifCoding struct {
	// Training & performance
	TrainingType       []string `json:"training_type"`
	RecoveryMethods    []string `json:"recovery_methods"`
	EquipmentMentioned []string `json:"equipment_mentioned"`
	PerformanceMetrics []string `json:"performance_metrics"`

	// Nutrition
	NutritionFocus       bool     `json:"nutrition_focus"`
	SupplementsMentioned []string `json:"supplements_mentioned"`
	DietType             *string  `json:"diet_type"`
	MealTimingDiscussed  bool     `json:"meal_timing_discussed"`

	// Credibility & science
	CitesResearch    bool     `json:"cites_research"`
	ExpertFeatured   bool     `json:"expert_featured"`
	StudiesMentioned []string `json:"studies_mentioned"`

	// Content characteristics
	PrimaryTopic     string `json:"primary_topic"`
	TargetAudience   string `json:"target_audience"`
	ActionableAdvice bool   `json:"actionable_advice"`
	ProductPromotion bool   `json:"product_promotion"`
	ContentQuality   string `json:"content_quality"` // high | medium | low

	// Key insights
	KeyQuotes  []Quote  `json:"key_quotes"`
	MainClaims []string `json:"main_claims"`

	MentionsInjury bool `json:"mentions_injury"`
}

// MotifCodingRecord is the stored extraction result for one video.
type MotifCodingRecord struct {
	ID            int64           `json:"id"`
	VideoPK       int64           `json:"video_id"`
	TranscriptPK  *int64          `json:"transcript_id"`
	CodingResults json.RawMessage `json:"coding_results"`
	ModelUsed     string          `json:"model_used"`
	TokensUsed    int             `json:"tokens_used"`
	ProcessingMS  int             `json:"processing_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Coding decodes the stored payload.
func (r *MotifCodingRecord) Coding() (*MotifCoding, error) {
	var c MotifCoding
	if err := json.Unmarshal(r.CodingResults, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CostEstimate is the advisory token/cost projection computed locally from
// transcript length. It is distinct from provider-reported usage.
type CostEstimate struct {
	EstimatedTotalTokens int     `json:"estimated_total_tokens"`
	EstimatedCostUSD     float64 `json:"estimated_cost_usd"`
	TranscriptTokens     int     `json:"transcript_tokens"`
	CompletionTokens     int     `json:"completion_tokens"`
}
