package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/heritage-archive/archive-service/internal/batch"
	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/persistence"
	"github.com/heritage-archive/archive-service/internal/repository"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// TaskService tracks external processing jobs and keeps their local status
// in sync with the batch service.
type TaskService struct {
	tasks      repository.TaskRepository
	runner     batch.JobRunner
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// TaskDependencies bundles requirements for the task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	Runner     batch.JobRunner
	Cache      *persistence.Redis
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(cfg config.BatchConfig, deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		runner:     deps.Runner,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cacheTTL:   cfg.StatusCacheTTL(),
	}
}

// TaskView is the status snapshot returned to callers.
type TaskView struct {
	ID            string
	Type          domain.TaskType
	Status        domain.TaskStatus
	CurrentStep   domain.ProcessingStep
	Steps         []domain.ProcessingStep
	ErrorMessage  string
	ExternalJobID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubmitVideoProcessing records a PENDING task and hands it to the batch
// service. When submission fails, or no batch queue is configured, the
// task stays PENDING with no external job id so a later retry can pick
// it up.
func (s *TaskService) SubmitVideoProcessing(ctx context.Context, payload domain.VideoProcessingPayload) (*domain.Task, error) {
	if payload.UserID == "" || payload.VideoKey == "" {
		return nil, apperrors.NewValidationError("user id and video key are required", nil)
	}
	if len(payload.Steps) == 0 {
		payload.Steps = domain.VideoProcessingSteps()
	}
	if payload.CurrentStep == "" {
		payload.CurrentStep = payload.Steps[0]
	}

	task := &domain.Task{
		ID:      uuid.NewString(),
		Type:    domain.TaskTypeVideoProcessing,
		Status:  domain.TaskStatusPending,
		Payload: payload,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if !s.runner.Configured() {
		s.logger.Warn("batch queue not configured, task left pending",
			zap.String("task_id", task.ID))
		return task, nil
	}

	jobID, err := s.runner.SubmitJob(ctx, batch.JobSpec{
		Name: "video-processing-" + task.ID,
		Environment: map[string]string{
			"TASK_ID":   task.ID,
			"USER_ID":   payload.UserID,
			"MEDIA_ID":  payload.MediaID,
			"VIDEO_KEY": payload.VideoKey,
			"BUCKET":    payload.Bucket,
		},
	})
	if err != nil {
		s.logger.Error("batch job submission failed, task left pending",
			zap.String("task_id", task.ID), zap.Error(err))
		return task, nil
	}

	if err := s.tasks.SetExternalJobID(ctx, task.ID, jobID); err != nil {
		return nil, err
	}
	task.ExternalJobID = &jobID

	if _, err := s.tasks.AdvanceStatus(ctx, task.ID, domain.TaskStatusPending, domain.TaskStatusProcessing, ""); err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatusProcessing
	return task, nil
}

// GetStatus returns the task's lifecycle state, refreshed from the batch
// service for non-terminal tasks. When the upstream poll fails the stored
// status is returned unchanged rather than erroring out.
func (s *TaskService) GetStatus(ctx context.Context, taskID string) (*TaskView, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, err
	}

	if !task.Status.IsTerminal() && task.ExternalJobID != nil {
		s.refreshFromBatch(ctx, task)
	}
	return taskViewFrom(task), nil
}

// GetStatusForViewer scopes GetStatus to the task's owner. Non-owners get
// NOT_FOUND rather than FORBIDDEN so task ids cannot be probed; admins may
// read any task.
func (s *TaskService) GetStatusForViewer(ctx context.Context, taskID string, viewer *domain.User) (*TaskView, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, err
	}
	if payload, ok := task.Payload.(domain.VideoProcessingPayload); ok {
		if payload.UserID != viewer.ID && !viewer.IsAdmin() {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
	}
	return s.GetStatus(ctx, taskID)
}

// refreshFromBatch polls the batch service for the task's job and records
// any forward status transition. Regressions reported by a stale poller
// are ignored; the compare-and-set in the repository closes the race with
// a concurrent poll.
func (s *TaskService) refreshFromBatch(ctx context.Context, task *domain.Task) {
	jobID := *task.ExternalJobID

	remote, reason, ok := s.cachedJobStatus(ctx, jobID)
	if !ok {
		details, err := s.runner.DescribeJobs(ctx, []string{jobID})
		if err != nil || len(details) == 0 {
			if err != nil {
				s.logger.Warn("batch status poll failed, serving stored status",
					zap.String("task_id", task.ID), zap.Error(err))
			}
			return
		}
		remote = details[0].Status
		reason = details[0].StatusReason
		s.cacheJobStatus(ctx, jobID, remote, reason)
	}

	next, ok := batchStatusToTask(remote)
	if !ok || !task.Status.CanTransition(next) {
		return
	}

	errorMessage := ""
	if next == domain.TaskStatusFailed {
		errorMessage = reason
		if errorMessage == "" {
			errorMessage = "batch job failed"
		}
	}
	advanced, err := s.tasks.AdvanceStatus(ctx, task.ID, task.Status, next, errorMessage)
	if err != nil {
		s.logger.Warn("task status advance failed",
			zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	if !advanced {
		// another poller got there first; re-read for an accurate view
		if fresh, err := s.tasks.GetByID(ctx, task.ID); err == nil {
			*task = *fresh
		}
		return
	}
	task.Status = next
	task.ErrorMessage = errorMessage
	task.UpdatedAt = time.Now()

	if next == domain.TaskStatusCompleted {
		s.publishCompleted(ctx, task)
	}
}

// RecordExternalJobID attaches a job id reported by an out-of-band submitter
// and moves the task into PROCESSING.
func (s *TaskService) RecordExternalJobID(ctx context.Context, taskID, jobID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return err
	}
	if task.Status != domain.TaskStatusPending {
		return apperrors.NewInvalidState("task is no longer pending")
	}
	if err := s.tasks.SetExternalJobID(ctx, taskID, jobID); err != nil {
		return err
	}
	_, err = s.tasks.AdvanceStatus(ctx, taskID, domain.TaskStatusPending, domain.TaskStatusProcessing, "")
	return err
}

// AdvanceStep records pipeline progress reported by the running job.
func (s *TaskService) AdvanceStep(ctx context.Context, taskID string, step domain.ProcessingStep) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return err
	}
	payload, ok := task.Payload.(domain.VideoProcessingPayload)
	if !ok {
		return apperrors.NewInvalidState("task has no step pipeline")
	}
	if stepIndex(payload.Steps, step) < 0 {
		return apperrors.NewValidationError("unknown pipeline step", map[string]any{"step": step})
	}
	if stepIndex(payload.Steps, step) <= stepIndex(payload.Steps, payload.CurrentStep) {
		return nil
	}
	payload.CurrentStep = step
	task.Payload = payload
	return s.tasks.UpdatePayload(ctx, task)
}

// ListQueueJobs returns every job currently known to the batch queue,
// newest first, for the admin overview.
func (s *TaskService) ListQueueJobs(ctx context.Context) ([]batch.JobDetail, error) {
	if !s.runner.Configured() {
		return nil, apperrors.NewInvalidState("batch queue not configured")
	}
	jobs, err := s.runner.ListQueueJobs(ctx)
	if err != nil {
		return nil, apperrors.NewUpstream("batch", err)
	}
	sort.Slice(jobs, func(i, j int) bool {
		ti, tj := jobs[i].CreatedAt, jobs[j].CreatedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return jobs, nil
}

func (s *TaskService) publishCompleted(ctx context.Context, task *domain.Task) {
	if s.dispatcher == nil {
		return
	}
	payload, ok := task.Payload.(domain.VideoProcessingPayload)
	if !ok {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTaskCompleted,
		ActorID:   payload.UserID,
		Timestamp: time.Now(),
		Payload: events.TaskCompletedPayload{
			OwnerID: payload.UserID,
			TaskID:  task.ID,
			MediaID: payload.MediaID,
			Status:  task.Status,
		},
	})
}

// The cache value is "STATUS|statusReason" so a cache hit on a failed job
// still carries the failure reason.
func (s *TaskService) cachedJobStatus(ctx context.Context, jobID string) (string, string, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return "", "", false
	}
	value, found, err := s.cache.GetString(ctx, jobStatusCacheKey(jobID))
	if err != nil || !found {
		return "", "", false
	}
	status, reason, _ := strings.Cut(value, "|")
	return status, reason, true
}

func (s *TaskService) cacheJobStatus(ctx context.Context, jobID, status, reason string) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.SetString(ctx, jobStatusCacheKey(jobID), status+"|"+reason, s.cacheTTL); err != nil {
		s.logger.Warn("job status cache write failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func taskViewFrom(task *domain.Task) *TaskView {
	view := &TaskView{
		ID:           task.ID,
		Type:         task.Type,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if task.ExternalJobID != nil {
		view.ExternalJobID = *task.ExternalJobID
	}
	if payload, ok := task.Payload.(domain.VideoProcessingPayload); ok {
		view.CurrentStep = payload.CurrentStep
		view.Steps = payload.Steps
	}
	return view
}

func jobStatusCacheKey(jobID string) string {
	return "batch:job-status:" + jobID
}

// batchStatusToTask maps a batch job state onto the local task lifecycle.
func batchStatusToTask(status string) (domain.TaskStatus, bool) {
	switch status {
	case "SUBMITTED", "PENDING", "RUNNABLE", "STARTING", "RUNNING":
		return domain.TaskStatusProcessing, true
	case "SUCCEEDED":
		return domain.TaskStatusCompleted, true
	case "FAILED":
		return domain.TaskStatusFailed, true
	default:
		return "", false
	}
}

func stepIndex(steps []domain.ProcessingStep, step domain.ProcessingStep) int {
	for i := range steps {
		if steps[i] == step {
			return i
		}
	}
	return -1
}
