package repository

import (
	"context"

	"ytresearch-backend/internal/models"
)

// Stats returns the counters the dashboard and /stats endpoint show.
func (r *VideoRepo) Stats(ctx context.Context) (*models.Stats, error) {
	s := &models.Stats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'no_captions'),
			COUNT(*) FILTER (WHERE has_captions),
			(SELECT COUNT(*) FROM motif_codings)
		FROM videos
	`).Scan(
		&s.TotalVideos, &s.Completed, &s.Processing, &s.Failed,
		&s.NoCaptions, &s.WithCaptions, &s.WithCoding,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
