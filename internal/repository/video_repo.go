package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ytresearch-backend/internal/models"
)

// ErrDuplicateVideo is returned when a video with the same video_id already
// exists. Callers should have checked first; this is the uniqueness backstop.
var ErrDuplicateVideo = errors.New("video already exists")

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

const videoColumns = `id, video_id, url, title, channel_name, channel_id, description,
	published_at, duration_seconds, language, view_count, like_count, comment_count,
	status, has_captions, error_message, created_at, updated_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	v := &models.Video{}
	err := row.Scan(
		&v.ID, &v.VideoID, &v.URL, &v.Title, &v.ChannelName, &v.ChannelID, &v.Description,
		&v.PublishedAt, &v.Duration, &v.Language, &v.ViewCount, &v.LikeCount, &v.CommentCount,
		&v.Status, &v.HasCaptions, &v.ErrorMessage, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VideoRepo) Create(ctx context.Context, v *models.Video) error {
	query := `INSERT INTO videos (video_id, url, title, channel_name, channel_id, description,
			published_at, duration_seconds, language, view_count, like_count, comment_count,
			status, has_captions, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		v.VideoID, v.URL, v.Title, v.ChannelName, v.ChannelID, v.Description,
		v.PublishedAt, v.Duration, v.Language, v.ViewCount, v.LikeCount, v.CommentCount,
		v.Status, v.HasCaptions, v.ErrorMessage,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateVideo
	}
	return err
}

// GetByVideoID looks a video up by its YouTube identifier. Returns
// (nil, nil) when absent.
func (r *VideoRepo) GetByVideoID(ctx context.Context, videoID string) (*models.Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos WHERE video_id = $1", videoColumns)
	v, err := scanVideo(r.pool.QueryRow(ctx, query, videoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// Update applies the non-nil fields of upd and returns the fresh snapshot,
// or (nil, nil) when no such video exists.
func (r *VideoRepo) Update(ctx context.Context, videoID string, upd models.VideoUpdate) (*models.Video, error) {
	query := fmt.Sprintf(`UPDATE videos SET
			status = COALESCE($2, status),
			has_captions = COALESCE($3, has_captions),
			error_message = COALESCE($4, error_message),
			updated_at = NOW()
		WHERE video_id = $1
		RETURNING %s`, videoColumns)

	v, err := scanVideo(r.pool.QueryRow(ctx, query, videoID, upd.Status, upd.HasCaptions, upd.ErrorMessage))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// List returns videos newest-first, optionally filtered by status and
// caption presence.
func (r *VideoRepo) List(ctx context.Context, filter models.VideoFilter) ([]*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::boolean IS NULL OR has_captions = $2)
		ORDER BY created_at DESC`, videoColumns)

	rows, err := r.pool.Query(ctx, query, filter.Status, filter.HasCaptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// Delete removes the video; transcripts and motif codings go with it via
// ON DELETE CASCADE. Returns false when no row matched.
func (r *VideoRepo) Delete(ctx context.Context, videoID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM videos WHERE video_id = $1", videoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
