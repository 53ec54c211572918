package events

import (
	"time"

	"github.com/heritage-archive/archive-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFriendRequested EventType = "friend_requested"
	EventFriendAccepted  EventType = "friend_accepted"
	EventFriendInvited   EventType = "friend_invited"
	EventMediaApproved   EventType = "media_approved"
	EventMediaRejected   EventType = "media_rejected"
	EventTaskCompleted   EventType = "task_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// FriendRequestedPayload payload.
type FriendRequestedPayload struct {
	InitiatorID   string `json:"initiator_id"`
	InitiatorName string `json:"initiator_name"`
	ReceiverID    string `json:"receiver_id"`
}

// FriendAcceptedPayload payload.
type FriendAcceptedPayload struct {
	AccepterID   string `json:"accepter_id"`
	AccepterName string `json:"accepter_name"`
	InitiatorID  string `json:"initiator_id"`
}

// FriendInvitedPayload payload.
type FriendInvitedPayload struct {
	InviterID    string `json:"inviter_id"`
	InviterName  string `json:"inviter_name"`
	InviteeEmail string `json:"invitee_email"`
	InviteID     string `json:"invite_id"`
}

// MediaReviewedPayload payload for approve/reject decisions.
type MediaReviewedPayload struct {
	OwnerID   string `json:"owner_id"`
	MediaID   string `json:"media_id"`
	MediaName string `json:"media_name"`
	Reason    string `json:"reason,omitempty"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	OwnerID string            `json:"owner_id"`
	TaskID  string            `json:"task_id"`
	MediaID string            `json:"media_id"`
	Status  domain.TaskStatus `json:"status"`
}
