package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ytresearch-backend/internal/models"
)

type MotifRepo struct {
	pool *pgxpool.Pool
}

func NewMotifRepo(pool *pgxpool.Pool) *MotifRepo {
	return &MotifRepo{pool: pool}
}

func (r *MotifRepo) Create(ctx context.Context, videoPK int64, transcriptPK *int64, m *models.MotifCodingRecord) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO motif_codings (video_id, transcript_id, coding_results, model_used, tokens_used, processing_ms)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		videoPK, transcriptPK, m.CodingResults, m.ModelUsed, m.TokensUsed, m.ProcessingMS,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return err
	}
	m.VideoPK = videoPK
	m.TranscriptPK = transcriptPK
	return nil
}

// GetByVideoPK returns the coding for a video, or (nil, nil) when none exists.
func (r *MotifRepo) GetByVideoPK(ctx context.Context, videoPK int64) (*models.MotifCodingRecord, error) {
	m := &models.MotifCodingRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, video_id, transcript_id, coding_results, model_used, tokens_used, processing_ms, created_at
		 FROM motif_codings WHERE video_id = $1 ORDER BY created_at LIMIT 1`,
		videoPK,
	).Scan(&m.ID, &m.VideoPK, &m.TranscriptPK, &m.CodingResults, &m.ModelUsed, &m.TokensUsed, &m.ProcessingMS, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
