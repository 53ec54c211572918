package dto

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// UploadURLRequest payload.
type UploadURLRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// UploadURLResponse carries a presigned PUT URL.
type UploadURLResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterMediaRequest payload for recording a completed upload.
type RegisterMediaRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	StorageKey      string  `json:"storage_key"`
	SizeBytes       int64   `json:"size_bytes"`
	MimeType        string  `json:"mime_type"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// MediaResponse is one archive item.
type MediaResponse struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"user_id"`
	Type             domain.MediaType        `json:"type"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description,omitempty"`
	Visibility       domain.Visibility       `json:"visibility"`
	StorageKey       string                  `json:"storage_key"`
	SizeBytes        int64                   `json:"size_bytes"`
	MimeType         string                  `json:"mime_type"`
	DurationSeconds  float64                 `json:"duration_seconds,omitempty"`
	ApprovalStatus   domain.ApprovalStatus   `json:"approval_status"`
	ModerationStatus domain.ModerationStatus `json:"moderation_status"`
	CreatedAt        time.Time               `json:"created_at"`
}

// TranscriptResponse is the current transcript version for review.
type TranscriptResponse struct {
	ID           string                  `json:"id"`
	MediaID      string                  `json:"media_id"`
	Text         string                  `json:"text"`
	Summary      string                  `json:"summary,omitempty"`
	Keywords     []string                `json:"keywords,omitempty"`
	Status       domain.TranscriptStatus `json:"status"`
	UserApproved bool                    `json:"user_approved"`
	CreatedAt    time.Time               `json:"created_at"`
}

// TranscriptReviewRequest payload.
type TranscriptReviewRequest struct {
	Approved   bool              `json:"approved"`
	Visibility domain.Visibility `json:"visibility"`
}

// RejectMediaRequest payload for the admin reject decision.
type RejectMediaRequest struct {
	Reason string `json:"reason"`
}
