package domain

import "time"

// MediaType classifies an uploaded item.
type MediaType string

const (
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypePhoto    MediaType = "PHOTO"
	MediaTypeAudio    MediaType = "AUDIO"
	MediaTypeDocument MediaType = "DOCUMENT"
)

// Visibility controls who may view a media item.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityFriends Visibility = "FRIENDS"
	VisibilityPublic  Visibility = "PUBLIC"
)

// ApprovalStatus tracks the admin publication review of a media item.
type ApprovalStatus string

const (
	ApprovalStatusDraft         ApprovalStatus = "DRAFT"
	ApprovalStatusAwaitingAdmin ApprovalStatus = "AWAITING_ADMIN"
	ApprovalStatusApproved      ApprovalStatus = "APPROVED"
	ApprovalStatusRejected      ApprovalStatus = "REJECTED"
)

// ModerationStatus tracks the automated moderation verdict from the pipeline.
type ModerationStatus string

const (
	ModerationStatusPending    ModerationStatus = "PENDING"
	ModerationStatusProcessing ModerationStatus = "PROCESSING"
	ModerationStatusApproved   ModerationStatus = "APPROVED"
	ModerationStatusRejected   ModerationStatus = "REJECTED"
	ModerationStatusReview     ModerationStatus = "REVIEW"
)

// Media is an uploaded interview recording (or other asset) owned by a user.
type Media struct {
	ID               string
	UserID           string
	Type             MediaType
	Name             string
	Description      string
	Visibility       Visibility
	StorageKey       string
	ThumbnailKey     string
	SizeBytes        int64
	MimeType         string
	DurationSeconds  float64
	ApprovalStatus   ApprovalStatus
	ModerationStatus ModerationStatus
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}
