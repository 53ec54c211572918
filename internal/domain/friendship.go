package domain

import "time"

// FriendshipStatus enumerates relationship states between two members.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "PENDING"
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	FriendshipStatusRejected FriendshipStatus = "REJECTED"
	FriendshipStatusBlocked  FriendshipStatus = "BLOCKED"
)

// Friendship is the single authoritative row for an unordered pair of users.
// The pair is stored under a canonical key (UserLow < UserHigh) so that only
// one row can ever exist regardless of which side initiated; InitiatorID
// preserves the directional semantics on top of the canonical key.
type Friendship struct {
	UserLow     string
	UserHigh    string
	InitiatorID string
	Status      FriendshipStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanonicalPair orders two user ids into the stored (low, high) form.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// NewFriendship builds a PENDING row initiated by initiatorID toward receiverID.
func NewFriendship(initiatorID, receiverID string) *Friendship {
	low, high := CanonicalPair(initiatorID, receiverID)
	return &Friendship{
		UserLow:     low,
		UserHigh:    high,
		InitiatorID: initiatorID,
		Status:      FriendshipStatusPending,
	}
}

// ReceiverID returns the non-initiating side of the pair.
func (f *Friendship) ReceiverID() string {
	if f.InitiatorID == f.UserLow {
		return f.UserHigh
	}
	return f.UserLow
}

// OtherParty returns the counterpart of userID in the pair, or "" when
// userID is not part of the friendship.
func (f *Friendship) OtherParty(userID string) string {
	switch userID {
	case f.UserLow:
		return f.UserHigh
	case f.UserHigh:
		return f.UserLow
	default:
		return ""
	}
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID string) bool {
	return userID == f.UserLow || userID == f.UserHigh
}
