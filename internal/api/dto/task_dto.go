package dto

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// TaskResponse is a status snapshot of one processing task.
type TaskResponse struct {
	ID            string                  `json:"id"`
	Type          domain.TaskType         `json:"type"`
	Status        domain.TaskStatus       `json:"status"`
	CurrentStep   domain.ProcessingStep   `json:"current_step,omitempty"`
	Steps         []domain.ProcessingStep `json:"steps,omitempty"`
	ErrorMessage  string                  `json:"error_message,omitempty"`
	ExternalJobID string                  `json:"external_job_id,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// BatchJobResponse is one entry in the admin queue overview.
type BatchJobResponse struct {
	JobID        string     `json:"job_id"`
	JobName      string     `json:"job_name"`
	Status       string     `json:"status"`
	StatusReason string     `json:"status_reason,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
}
