package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// NotificationRepository encapsulates the per-user notification list.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, user_id, notification_type, title, message, link, read)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Link,
		notification.Read,
	).Scan(&notification.CreatedAt, &notification.UpdatedAt)
}

// MarkRead flips the read flag. Re-marking an already-read notification
// matches the row and succeeds identically; a missing row is pgx.ErrNoRows.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	const query = `
        UPDATE notifications SET read=TRUE, updated_at=NOW()
        WHERE id=$1 AND user_id=$2`

	cmd, err := r.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `
        UPDATE notifications SET read=TRUE, updated_at=NOW()
        WHERE user_id=$1 AND read=FALSE`

	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
        SELECT id, user_id, notification_type, title, message, link, read, created_at, updated_at
        FROM notifications WHERE user_id=$1`
	if unreadOnly {
		query += ` AND read=FALSE`
	}
	// newest first, id as the tie-break for identical timestamps
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Link,
			&n.Read,
			&n.CreatedAt,
			&n.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
