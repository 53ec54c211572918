package domain

import "time"

// InviteStatus enumerates the lifecycle of an emailed friend invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "PENDING"
	InviteStatusAccepted  InviteStatus = "ACCEPTED"
	InviteStatusExpired   InviteStatus = "EXPIRED"
	InviteStatusCancelled InviteStatus = "CANCELLED"
)

// FriendInvite is an invitation sent to an email address that does not yet
// belong to a member. Only a hash of the emailed token secret is stored.
type FriendInvite struct {
	ID           string
	InviterID    string
	InviteeEmail string
	InviteeName  string
	Message      string
	TokenHash    string
	Status       InviteStatus
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the invite can no longer be accepted at now.
func (i *FriendInvite) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
