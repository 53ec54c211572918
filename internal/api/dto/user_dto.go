package dto

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// MeResponse describes the resolved caller.
type MeResponse struct {
	ID                  string          `json:"id"`
	Email               string          `json:"email"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Username            string          `json:"username"`
	Role                domain.UserRole `json:"role"`
	UnreadNotifications int             `json:"unread_notifications"`
	CreatedAt           time.Time       `json:"created_at"`
}
