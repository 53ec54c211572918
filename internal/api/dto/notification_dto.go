package dto

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// MarkReadRequest payload. Set All to mark the whole feed read, otherwise
// NotificationID selects a single entry.
type MarkReadRequest struct {
	NotificationID string `json:"notification_id"`
	All            bool   `json:"all"`
}

// NotificationResponse is one feed entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      string                  `json:"link,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}
