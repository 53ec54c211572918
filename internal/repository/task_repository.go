package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// TaskRepository persists external processing job records.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	SetExternalJobID(ctx context.Context, id, externalJobID string) error
	// AdvanceStatus persists a forward-only status change. The WHERE clause
	// re-checks the current status so a stale poller can never regress a row.
	AdvanceStatus(ctx context.Context, id string, from, to domain.TaskStatus, errorMessage string) (bool, error)
	UpdatePayload(ctx context.Context, task *domain.Task) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	payload, err := domain.EncodeTaskPayload(task.Payload)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO tasks (id, task_type, status, payload, error_message, external_job_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		task.ID,
		task.Type,
		task.Status,
		payload,
		task.ErrorMessage,
		task.ExternalJobID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
        SELECT id, task_type, status, payload, error_message, external_job_id, created_at, updated_at
        FROM tasks WHERE id=$1`

	var task domain.Task
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Type,
		&task.Status,
		&raw,
		&task.ErrorMessage,
		&task.ExternalJobID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	payload, err := domain.DecodeTaskPayload(task.Type, raw)
	if err != nil {
		return nil, err
	}
	task.Payload = payload
	return &task, nil
}

func (r *taskRepository) SetExternalJobID(ctx context.Context, id, externalJobID string) error {
	const query = `UPDATE tasks SET external_job_id=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, externalJobID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) AdvanceStatus(ctx context.Context, id string, from, to domain.TaskStatus, errorMessage string) (bool, error) {
	const query = `
        UPDATE tasks SET status=$1, error_message=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4`

	cmd, err := r.pool.Exec(ctx, query, to, errorMessage, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *taskRepository) UpdatePayload(ctx context.Context, task *domain.Task) error {
	payload, err := domain.EncodeTaskPayload(task.Payload)
	if err != nil {
		return err
	}

	const query = `UPDATE tasks SET payload=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, payload, task.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
