package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// InviteRepository persists emailed friend invites.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.FriendInvite) error
	GetByID(ctx context.Context, id string) (*domain.FriendInvite, error)
	UpdateStatus(ctx context.Context, id string, status domain.InviteStatus) error
	ListPendingByEmail(ctx context.Context, email string) ([]domain.FriendInvite, error)
}

type inviteRepository struct {
	pool *pgxpool.Pool
}

// NewInviteRepository instantiates the repository.
func NewInviteRepository(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepository{pool: pool}
}

const inviteColumns = `id, inviter_id, invitee_email, invitee_name, message, token_hash, status, expires_at, created_at`

func (r *inviteRepository) Create(ctx context.Context, invite *domain.FriendInvite) error {
	const query = `
        INSERT INTO friend_invites (id, inviter_id, invitee_email, invitee_name, message,
                                    token_hash, status, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		invite.ID,
		invite.InviterID,
		invite.InviteeEmail,
		invite.InviteeName,
		invite.Message,
		invite.TokenHash,
		invite.Status,
		invite.ExpiresAt,
	).Scan(&invite.CreatedAt)
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.FriendInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM friend_invites WHERE id=$1`

	var invite domain.FriendInvite
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&invite.ID,
		&invite.InviterID,
		&invite.InviteeEmail,
		&invite.InviteeName,
		&invite.Message,
		&invite.TokenHash,
		&invite.Status,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) UpdateStatus(ctx context.Context, id string, status domain.InviteStatus) error {
	const query = `UPDATE friend_invites SET status=$1 WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inviteRepository) ListPendingByEmail(ctx context.Context, email string) ([]domain.FriendInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM friend_invites
        WHERE LOWER(invitee_email)=LOWER($1) AND status=$2
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, email, domain.InviteStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FriendInvite
	for rows.Next() {
		var invite domain.FriendInvite
		if err := rows.Scan(
			&invite.ID,
			&invite.InviterID,
			&invite.InviteeEmail,
			&invite.InviteeName,
			&invite.Message,
			&invite.TokenHash,
			&invite.Status,
			&invite.ExpiresAt,
			&invite.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, invite)
	}
	return result, rows.Err()
}
