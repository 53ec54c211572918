package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus enumerates the lifecycle of an external processing job record.
// Transitions are monotonic: PENDING -> PROCESSING -> {COMPLETED, FAILED},
// with no way out of a terminal state.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

var taskStatusRank = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusProcessing: 1,
	TaskStatusCompleted:  2,
	TaskStatusFailed:     2,
}

// CanTransition reports whether moving from current to next advances the
// lifecycle without regressing or leaving a terminal state.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s == next {
		return false
	}
	if s == TaskStatusCompleted || s == TaskStatusFailed {
		return false
	}
	return taskStatusRank[next] > taskStatusRank[s]
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskType keys the payload union.
type TaskType string

const (
	TaskTypeVideoProcessing TaskType = "VIDEO_PROCESSING"
)

// ProcessingStep names a stage of the external video pipeline.
type ProcessingStep string

const (
	StepUploadComplete  ProcessingStep = "UPLOAD_COMPLETE"
	StepModeration      ProcessingStep = "MODERATION"
	StepAudioExtraction ProcessingStep = "AUDIO_EXTRACTION"
	StepTranscription   ProcessingStep = "TRANSCRIPTION"
	StepSummarization   ProcessingStep = "SUMMARIZATION"
)

// VideoProcessingSteps is the pipeline step sequence in execution order.
func VideoProcessingSteps() []ProcessingStep {
	return []ProcessingStep{
		StepUploadComplete,
		StepModeration,
		StepAudioExtraction,
		StepTranscription,
		StepSummarization,
	}
}

// TaskPayload is the tagged union of per-type task payloads.
type TaskPayload interface {
	TaskType() TaskType
}

// VideoProcessingPayload carries everything the batch job needs to locate and
// process one uploaded video.
type VideoProcessingPayload struct {
	UserID          string           `json:"user_id"`
	MediaID         string           `json:"media_id"`
	VideoKey        string           `json:"video_key"`
	Bucket          string           `json:"bucket"`
	FileName        string           `json:"file_name"`
	SizeBytes       int64            `json:"size_bytes"`
	MimeType        string           `json:"mime_type"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
	Steps           []ProcessingStep `json:"steps"`
	CurrentStep     ProcessingStep   `json:"current_step"`
}

// TaskType implements TaskPayload.
func (VideoProcessingPayload) TaskType() TaskType { return TaskTypeVideoProcessing }

// Task records the submission of an external processing job. ExternalJobID is
// set once the job has been handed to the batch service; a task whose
// submission failed stays PENDING with no job id so it is never silently lost.
type Task struct {
	ID            string
	Type          TaskType
	Status        TaskStatus
	Payload       TaskPayload
	ErrorMessage  string
	ExternalJobID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EncodeTaskPayload serializes a payload for storage.
func EncodeTaskPayload(p TaskPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode task payload: nil payload")
	}
	return json.Marshal(p)
}

// DecodeTaskPayload reconstructs the payload variant selected by taskType.
func DecodeTaskPayload(taskType TaskType, raw []byte) (TaskPayload, error) {
	switch taskType {
	case TaskTypeVideoProcessing:
		var p VideoProcessingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", taskType, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("decode task payload: unknown task type %q", taskType)
	}
}
