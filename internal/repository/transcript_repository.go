package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// TranscriptRepository persists generated transcript versions.
type TranscriptRepository interface {
	Create(ctx context.Context, transcript *domain.Transcript) error
	GetCurrentByMedia(ctx context.Context, mediaID string) (*domain.Transcript, error)
	Update(ctx context.Context, transcript *domain.Transcript) error
	ListByMedia(ctx context.Context, mediaID string) ([]domain.Transcript, error)
}

type transcriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository instantiates the repository.
func NewTranscriptRepository(pool *pgxpool.Pool) TranscriptRepository {
	return &transcriptRepository{pool: pool}
}

const transcriptColumns = `id, media_id, text, summary, keywords, srt_key, vtt_key, status,
               error_message, is_current, user_approved, desired_visibility, created_at, updated_at`

// Create inserts a new transcript version. A version flagged current
// demotes the previous current one in the same transaction, keeping the
// one-current-per-media invariant.
func (r *transcriptRepository) Create(ctx context.Context, transcript *domain.Transcript) error {
	const demote = `UPDATE transcripts SET is_current=FALSE, updated_at=NOW()
        WHERE media_id=$1 AND is_current=TRUE`
	const query = `
        INSERT INTO transcripts (id, media_id, text, summary, keywords, srt_key, vtt_key,
                                 status, error_message, is_current, user_approved, desired_visibility)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING created_at, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if transcript.IsCurrent {
		if _, err := tx.Exec(ctx, demote, transcript.MediaID); err != nil {
			return err
		}
	}
	err = tx.QueryRow(ctx, query,
		transcript.ID,
		transcript.MediaID,
		transcript.Text,
		transcript.Summary,
		transcript.Keywords,
		transcript.SRTKey,
		transcript.VTTKey,
		transcript.Status,
		transcript.ErrorMessage,
		transcript.IsCurrent,
		transcript.UserApproved,
		transcript.DesiredVisibility,
	).Scan(&transcript.CreatedAt, &transcript.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *transcriptRepository) GetCurrentByMedia(ctx context.Context, mediaID string) (*domain.Transcript, error) {
	const query = `SELECT ` + transcriptColumns + ` FROM transcripts
        WHERE media_id=$1 AND is_current=TRUE
        ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, mediaID))
}

func (r *transcriptRepository) Update(ctx context.Context, transcript *domain.Transcript) error {
	const query = `
        UPDATE transcripts SET text=$1, summary=$2, keywords=$3, srt_key=$4, vtt_key=$5,
            status=$6, error_message=$7, is_current=$8, user_approved=$9,
            desired_visibility=$10, updated_at=NOW()
        WHERE id=$11`

	cmd, err := r.pool.Exec(ctx, query,
		transcript.Text,
		transcript.Summary,
		transcript.Keywords,
		transcript.SRTKey,
		transcript.VTTKey,
		transcript.Status,
		transcript.ErrorMessage,
		transcript.IsCurrent,
		transcript.UserApproved,
		transcript.DesiredVisibility,
		transcript.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transcriptRepository) ListByMedia(ctx context.Context, mediaID string) ([]domain.Transcript, error) {
	const query = `SELECT ` + transcriptColumns + ` FROM transcripts
        WHERE media_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transcript
	for rows.Next() {
		transcript, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *transcript)
	}
	return result, rows.Err()
}

func (r *transcriptRepository) scanOne(row rowScanner) (*domain.Transcript, error) {
	var transcript domain.Transcript
	if err := row.Scan(
		&transcript.ID,
		&transcript.MediaID,
		&transcript.Text,
		&transcript.Summary,
		&transcript.Keywords,
		&transcript.SRTKey,
		&transcript.VTTKey,
		&transcript.Status,
		&transcript.ErrorMessage,
		&transcript.IsCurrent,
		&transcript.UserApproved,
		&transcript.DesiredVisibility,
		&transcript.CreatedAt,
		&transcript.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &transcript, nil
}
