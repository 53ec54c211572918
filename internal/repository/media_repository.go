package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// MediaRepository persists uploaded media metadata.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	GetByID(ctx context.Context, id string) (*domain.Media, error)
	Update(ctx context.Context, media *domain.Media) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Media, error)
	ListByApproval(ctx context.Context, status domain.ApprovalStatus, limit, offset int) ([]domain.Media, error)
}

type mediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository instantiates the repository.
func NewMediaRepository(pool *pgxpool.Pool) MediaRepository {
	return &mediaRepository{pool: pool}
}

const mediaColumns = `id, user_id, media_type, name, description, visibility, storage_key,
               thumbnail_key, size_bytes, mime_type, duration_seconds, approval_status,
               moderation_status, created_at, processed_at`

func (r *mediaRepository) Create(ctx context.Context, media *domain.Media) error {
	const query = `
        INSERT INTO media (id, user_id, media_type, name, description, visibility, storage_key,
                           thumbnail_key, size_bytes, mime_type, duration_seconds,
                           approval_status, moderation_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		media.ID,
		media.UserID,
		media.Type,
		media.Name,
		media.Description,
		media.Visibility,
		media.StorageKey,
		media.ThumbnailKey,
		media.SizeBytes,
		media.MimeType,
		media.DurationSeconds,
		media.ApprovalStatus,
		media.ModerationStatus,
	).Scan(&media.CreatedAt)
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*domain.Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM media WHERE id=$1`

	var media domain.Media
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&media.ID,
		&media.UserID,
		&media.Type,
		&media.Name,
		&media.Description,
		&media.Visibility,
		&media.StorageKey,
		&media.ThumbnailKey,
		&media.SizeBytes,
		&media.MimeType,
		&media.DurationSeconds,
		&media.ApprovalStatus,
		&media.ModerationStatus,
		&media.CreatedAt,
		&media.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) Update(ctx context.Context, media *domain.Media) error {
	const query = `
        UPDATE media SET name=$1, description=$2, visibility=$3, thumbnail_key=$4,
            duration_seconds=$5, approval_status=$6, moderation_status=$7, processed_at=$8
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		media.Name,
		media.Description,
		media.Visibility,
		media.ThumbnailKey,
		media.DurationSeconds,
		media.ApprovalStatus,
		media.ModerationStatus,
		media.ProcessedAt,
		media.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mediaRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM media
        WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *mediaRepository) ListByApproval(ctx context.Context, status domain.ApprovalStatus, limit, offset int) ([]domain.Media, error) {
	const query = `SELECT ` + mediaColumns + ` FROM media
        WHERE approval_status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *mediaRepository) list(ctx context.Context, query string, args ...any) ([]domain.Media, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Media
	for rows.Next() {
		var media domain.Media
		if err := rows.Scan(
			&media.ID,
			&media.UserID,
			&media.Type,
			&media.Name,
			&media.Description,
			&media.Visibility,
			&media.StorageKey,
			&media.ThumbnailKey,
			&media.SizeBytes,
			&media.MimeType,
			&media.DurationSeconds,
			&media.ApprovalStatus,
			&media.ModerationStatus,
			&media.CreatedAt,
			&media.ProcessedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, media)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
