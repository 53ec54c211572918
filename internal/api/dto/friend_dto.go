package dto

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// FriendRequestRequest payload.
type FriendRequestRequest struct {
	ReceiverID string `json:"receiver_id"`
}

// BlockRequest payload.
type BlockRequest struct {
	UserID string `json:"user_id"`
}

// InviteRequest payload for inviting a non-member by email.
type InviteRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// InviteAcceptRequest payload.
type InviteAcceptRequest struct {
	Token string `json:"token"`
}

// FriendshipResponse is the raw ledger row for request listings.
type FriendshipResponse struct {
	InitiatorID string                  `json:"initiator_id"`
	ReceiverID  string                  `json:"receiver_id"`
	Status      domain.FriendshipStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// FriendResponse is a friendship from the viewer's perspective, enriched
// with the other party's profile.
type FriendResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteResponse reports the outcome of an invite call. Token is only
// present for freshly issued invites; for existing members Requested is
// set instead.
type InviteResponse struct {
	Requested bool   `json:"requested"`
	InviteID  string `json:"invite_id,omitempty"`
	Token     string `json:"token,omitempty"`
}
