package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// UserUpsert carries the profile attributes available from a validated
// session. Email is required; the rest is best-effort.
type UserUpsert struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Username  string
	AvatarKey string
}

// UserRepository defines persistence access for members.
type UserRepository interface {
	UpsertBySubject(ctx context.Context, attrs UserUpsert) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetBySubject(ctx context.Context, subjectID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, subject_id, email, first_name, last_name, username, role, avatar_key, created_at, updated_at`

// UpsertBySubject inserts the user on first sight and refreshes profile
// attributes afterwards. Keyed on subject_id so repeated calls for the same
// identity can never create a second row; the generated id only lands when
// the insert wins, the conflict branch keeps the existing one.
func (r *userRepository) UpsertBySubject(ctx context.Context, attrs UserUpsert) (*domain.User, error) {
	const query = `
        INSERT INTO users (id, subject_id, email, first_name, last_name, username, avatar_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (subject_id) DO UPDATE SET
            email = EXCLUDED.email,
            first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
            last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
            username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
            avatar_key = COALESCE(NULLIF(EXCLUDED.avatar_key, ''), users.avatar_key),
            updated_at = NOW()
        RETURNING ` + userColumns

	return r.scanOne(r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		attrs.SubjectID,
		attrs.Email,
		attrs.FirstName,
		attrs.LastName,
		attrs.Username,
		attrs.AvatarKey,
	))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetBySubject(ctx context.Context, subjectID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE subject_id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, subjectID))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	result := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.SubjectID,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Username,
			&user.Role,
			&user.AvatarKey,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result[user.ID] = user
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanOne(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.SubjectID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.Role,
		&user.AvatarKey,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
