package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ytresearch-backend/internal/models"
)

type TranscriptRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptRepo(pool *pgxpool.Pool) *TranscriptRepo {
	return &TranscriptRepo{pool: pool}
}

// Create stores the transcript and, in the same transaction, marks the
// owning video completed with captions. The two writes are inseparable:
// has_captions=true must imply a transcript row exists.
func (r *TranscriptRepo) Create(ctx context.Context, videoPK int64, t *models.Transcript) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO transcripts (video_id, language, is_auto_generated, raw_text, word_count)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		videoPK, t.Language, t.IsAutoGenerated, t.RawText, t.WordCount,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return err
	}
	t.VideoPK = videoPK

	_, err = tx.Exec(ctx,
		"UPDATE videos SET has_captions = TRUE, status = $1, updated_at = NOW() WHERE id = $2",
		models.StatusCompleted, videoPK,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByVideoPK returns the transcript for a video, or (nil, nil) when the
// video has none.
func (r *TranscriptRepo) GetByVideoPK(ctx context.Context, videoPK int64) (*models.Transcript, error) {
	t := &models.Transcript{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, video_id, language, is_auto_generated, raw_text, word_count, created_at
		 FROM transcripts WHERE video_id = $1 ORDER BY created_at LIMIT 1`,
		videoPK,
	).Scan(&t.ID, &t.VideoPK, &t.Language, &t.IsAutoGenerated, &t.RawText, &t.WordCount, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
