package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/repository"
)

// ExportRow is one flattened research row: video, transcript and motif
// coding fields combined, with list fields joined for tabular output.
type ExportRow struct {
	VideoID       string   `json:"video_id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	ChannelName   string   `json:"channel_name"`
	PublishedAt   string   `json:"published_at"`
	DurationSecs  int      `json:"duration_seconds"`
	ViewCount     *int64   `json:"view_count"`
	LikeCount     *int64   `json:"like_count"`
	CommentCount  *int64   `json:"comment_count"`
	Status        string   `json:"status"`
	HasCaptions   bool     `json:"has_captions"`
	Language      string   `json:"language"`
	WordCount     int      `json:"word_count"`
	AutoGenerated bool     `json:"is_auto_generated"`
	PrimaryTopic  string   `json:"primary_topic"`
	Audience      string   `json:"target_audience"`
	Quality       string   `json:"content_quality"`
	TrainingTypes []string `json:"training_type"`
	Recovery      []string `json:"recovery_methods"`
	Equipment     []string `json:"equipment_mentioned"`
	Metrics       []string `json:"performance_metrics"`
	Nutrition     bool     `json:"nutrition_focus"`
	Supplements   []string `json:"supplements_mentioned"`
	DietType      string   `json:"diet_type"`
	MealTiming    bool     `json:"meal_timing_discussed"`
	CitesResearch bool     `json:"cites_research"`
	Expert        bool     `json:"expert_featured"`
	Studies       []string `json:"studies_mentioned"`
	Actionable    bool     `json:"actionable_advice"`
	Promotion     bool     `json:"product_promotion"`
	Injury        bool     `json:"mentions_injury"`
	MainClaims    []string `json:"main_claims"`
	KeyQuotes     []string `json:"key_quotes"`
	ModelUsed     string   `json:"model_used"`
	TokensUsed    int      `json:"tokens_used"`
}

type ExportHandler struct {
	videoRepo      *repository.VideoRepo
	transcriptRepo *repository.TranscriptRepo
	motifRepo      *repository.MotifRepo
}

func NewExportHandler(videoRepo *repository.VideoRepo, transcriptRepo *repository.TranscriptRepo, motifRepo *repository.MotifRepo) *ExportHandler {
	return &ExportHandler{videoRepo: videoRepo, transcriptRepo: transcriptRepo, motifRepo: motifRepo}
}

// Export streams every video as a flattened row, CSV or JSON.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "format must be csv or json", r))
		return
	}

	rows, err := h.buildRows(r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to build export", r))
		return
	}

	stamp := time.Now().Format("20060102")
	if format == "json" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=video_export_%s.json", stamp))
		writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows, "count": len(rows)})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=video_export_%s.csv", stamp))
	writeCSV(w, rows)
}

func (h *ExportHandler) buildRows(r *http.Request) ([]ExportRow, error) {
	videos, err := h.videoRepo.List(r.Context(), models.VideoFilter{})
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(videos))
	for _, v := range videos {
		row := ExportRow{
			VideoID:      v.VideoID,
			URL:          v.URL,
			Title:        strOrEmpty(v.Title),
			ChannelName:  strOrEmpty(v.ChannelName),
			Status:       v.Status,
			HasCaptions:  v.HasCaptions,
			Language:     strOrEmpty(v.Language),
			ViewCount:    v.ViewCount,
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
		}
		if v.PublishedAt != nil {
			row.PublishedAt = v.PublishedAt.Format(time.RFC3339)
		}
		if v.Duration != nil {
			row.DurationSecs = *v.Duration
		}

		transcript, err := h.transcriptRepo.GetByVideoPK(r.Context(), v.ID)
		if err != nil {
			return nil, err
		}
		if transcript != nil {
			row.WordCount = transcript.WordCount
			row.AutoGenerated = transcript.IsAutoGenerated
			if transcript.Language != nil {
				row.Language = *transcript.Language
			}
		}

		record, err := h.motifRepo.GetByVideoPK(r.Context(), v.ID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			if coding, err := record.Coding(); err == nil {
				row.PrimaryTopic = coding.PrimaryTopic
				row.Audience = coding.TargetAudience
				row.Quality = coding.ContentQuality
				row.TrainingTypes = coding.TrainingType
				row.Recovery = coding.RecoveryMethods
				row.Equipment = coding.EquipmentMentioned
				row.Metrics = coding.PerformanceMetrics
				row.Nutrition = coding.NutritionFocus
				row.Supplements = coding.SupplementsMentioned
				row.DietType = strOrEmpty(coding.DietType)
				row.MealTiming = coding.MealTimingDiscussed
				row.CitesResearch = coding.CitesResearch
				row.Expert = coding.ExpertFeatured
				row.Studies = coding.StudiesMentioned
				row.Actionable = coding.ActionableAdvice
				row.Promotion = coding.ProductPromotion
				row.Injury = coding.MentionsInjury
				row.MainClaims = coding.MainClaims
				for _, q := range coding.KeyQuotes {
					row.KeyQuotes = append(row.KeyQuotes, q.Text)
				}
			}
			row.ModelUsed = record.ModelUsed
			row.TokensUsed = record.TokensUsed
		}

		rows = append(rows, row)
	}
	return rows, nil
}

var csvHeader = []string{
	"video_id", "url", "title", "channel_name", "published_at", "duration_seconds",
	"view_count", "like_count", "comment_count", "status", "has_captions", "language",
	"word_count", "is_auto_generated", "primary_topic", "target_audience",
	"content_quality", "training_type", "recovery_methods", "equipment_mentioned",
	"performance_metrics", "nutrition_focus", "supplements_mentioned", "diet_type",
	"meal_timing_discussed", "cites_research", "expert_featured", "studies_mentioned",
	"actionable_advice", "product_promotion", "mentions_injury", "main_claims",
	"key_quotes", "model_used", "tokens_used",
}

func writeCSV(w http.ResponseWriter, rows []ExportRow) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write(csvHeader)
	for _, r := range rows {
		cw.Write([]string{
			r.VideoID, r.URL, r.Title, r.ChannelName, r.PublishedAt,
			strconv.Itoa(r.DurationSecs),
			int64PtrString(r.ViewCount), int64PtrString(r.LikeCount), int64PtrString(r.CommentCount),
			r.Status, strconv.FormatBool(r.HasCaptions), r.Language,
			strconv.Itoa(r.WordCount), strconv.FormatBool(r.AutoGenerated),
			r.PrimaryTopic, r.Audience, r.Quality,
			joinList(r.TrainingTypes), joinList(r.Recovery), joinList(r.Equipment),
			joinList(r.Metrics), strconv.FormatBool(r.Nutrition), joinList(r.Supplements),
			r.DietType, strconv.FormatBool(r.MealTiming), strconv.FormatBool(r.CitesResearch),
			strconv.FormatBool(r.Expert), joinList(r.Studies),
			strconv.FormatBool(r.Actionable), strconv.FormatBool(r.Promotion),
			strconv.FormatBool(r.Injury), joinList(r.MainClaims), joinList(r.KeyQuotes),
			r.ModelUsed, strconv.Itoa(r.TokensUsed),
		})
	}
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64PtrString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
