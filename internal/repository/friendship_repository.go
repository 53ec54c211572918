package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// FriendshipRepository encapsulates the relationship ledger. Rows are keyed
// by the canonical (user_low, user_high) pair; Create is a conditional insert
// that reports false when a row for the pair already exists, letting callers
// fail closed on the request/request race.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *domain.Friendship) (bool, error)
	Get(ctx context.Context, userA, userB string) (*domain.Friendship, error)
	UpdateStatus(ctx context.Context, userA, userB string, status domain.FriendshipStatus) error
	Delete(ctx context.Context, userA, userB string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Friendship, error)
	ListPendingByReceiver(ctx context.Context, userID string) ([]domain.Friendship, error)
	ListPendingByInitiator(ctx context.Context, userID string) ([]domain.Friendship, error)
}

type friendshipRepository struct {
	pool *pgxpool.Pool
}

// NewFriendshipRepository instantiates the repository.
func NewFriendshipRepository(pool *pgxpool.Pool) FriendshipRepository {
	return &friendshipRepository{pool: pool}
}

const friendshipColumns = `user_low, user_high, initiator_id, status, created_at, updated_at`

func (r *friendshipRepository) Create(ctx context.Context, friendship *domain.Friendship) (bool, error) {
	const query = `
        INSERT INTO friendships (user_low, user_high, initiator_id, status)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_low, user_high) DO NOTHING
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		friendship.UserLow,
		friendship.UserHigh,
		friendship.InitiatorID,
		friendship.Status,
	).Scan(&friendship.CreatedAt, &friendship.UpdatedAt)
	if err == pgx.ErrNoRows {
		// lost the insert race: a row for this pair already exists
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *friendshipRepository) Get(ctx context.Context, userA, userB string) (*domain.Friendship, error) {
	low, high := domain.CanonicalPair(userA, userB)
	const query = `SELECT ` + friendshipColumns + ` FROM friendships WHERE user_low=$1 AND user_high=$2`

	var friendship domain.Friendship
	if err := r.pool.QueryRow(ctx, query, low, high).Scan(
		&friendship.UserLow,
		&friendship.UserHigh,
		&friendship.InitiatorID,
		&friendship.Status,
		&friendship.CreatedAt,
		&friendship.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, userA, userB string, status domain.FriendshipStatus) error {
	low, high := domain.CanonicalPair(userA, userB)
	const query = `UPDATE friendships SET status=$1, updated_at=NOW() WHERE user_low=$2 AND user_high=$3`

	cmd, err := r.pool.Exec(ctx, query, status, low, high)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *friendshipRepository) Delete(ctx context.Context, userA, userB string) error {
	low, high := domain.CanonicalPair(userA, userB)
	const query = `DELETE FROM friendships WHERE user_low=$1 AND user_high=$2`

	cmd, err := r.pool.Exec(ctx, query, low, high)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *friendshipRepository) ListByUser(ctx context.Context, userID string) ([]domain.Friendship, error) {
	const query = `SELECT ` + friendshipColumns + ` FROM friendships
        WHERE user_low=$1 OR user_high=$1
        ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *friendshipRepository) ListPendingByReceiver(ctx context.Context, userID string) ([]domain.Friendship, error) {
	const query = `SELECT ` + friendshipColumns + ` FROM friendships
        WHERE (user_low=$1 OR user_high=$1) AND initiator_id <> $1 AND status=$2
        ORDER BY created_at DESC`
	return r.list(ctx, query, userID, domain.FriendshipStatusPending)
}

func (r *friendshipRepository) ListPendingByInitiator(ctx context.Context, userID string) ([]domain.Friendship, error) {
	const query = `SELECT ` + friendshipColumns + ` FROM friendships
        WHERE initiator_id=$1 AND status=$2
        ORDER BY created_at DESC`
	return r.list(ctx, query, userID, domain.FriendshipStatusPending)
}

func (r *friendshipRepository) list(ctx context.Context, query string, args ...any) ([]domain.Friendship, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Friendship
	for rows.Next() {
		var friendship domain.Friendship
		if err := rows.Scan(
			&friendship.UserLow,
			&friendship.UserHigh,
			&friendship.InitiatorID,
			&friendship.Status,
			&friendship.CreatedAt,
			&friendship.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, friendship)
	}
	return result, rows.Err()
}
