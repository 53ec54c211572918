package domain

import "time"

// NotificationType tags the event a notification describes.
type NotificationType string

const (
	NotificationTypeFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationTypeFriendAccepted NotificationType = "FRIEND_ACCEPTED"
	NotificationTypeMediaApproved  NotificationType = "MEDIA_APPROVED"
	NotificationTypeMediaRejected  NotificationType = "MEDIA_REJECTED"
	NotificationTypeTranscriptDone NotificationType = "TRANSCRIPT_READY"
)

// Notification is an append-only per-user event entry. Rows are only ever
// mutated to flip Read and are never deleted in normal operation.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
