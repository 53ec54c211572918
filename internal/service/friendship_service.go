package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/repository"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// FriendshipService coordinates the relationship ledger.
type FriendshipService struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	invites     repository.InviteRepository
	dispatcher  events.Dispatcher
	inviteTTL   time.Duration
	bcryptCost  int
}

// FriendshipDependencies bundles requirements for the friendship service.
type FriendshipDependencies struct {
	FriendshipRepo repository.FriendshipRepository
	UserRepo       repository.UserRepository
	InviteRepo     repository.InviteRepository
	Dispatcher     events.Dispatcher
}

// NewFriendshipService constructs the service.
func NewFriendshipService(cfg config.AuthConfig, deps FriendshipDependencies) *FriendshipService {
	return &FriendshipService{
		friendships: deps.FriendshipRepo,
		users:       deps.UserRepo,
		invites:     deps.InviteRepo,
		dispatcher:  deps.Dispatcher,
		inviteTTL:   cfg.InviteTTL(),
		bcryptCost:  cfg.InviteBcryptCost,
	}
}

// FriendView is a friendship enriched with the other party's profile,
// with the status expressed from the viewer's perspective.
type FriendView struct {
	UserID    string
	Name      string
	Email     string
	Username  string
	Status    string
	CreatedAt time.Time
}

// Viewer-relative statuses for listing.
const (
	viewStatusAccepted  = "ACCEPTED"
	viewStatusPending   = "PENDING"   // viewer initiated, waiting on them
	viewStatusRequested = "REQUESTED" // they initiated, waiting on viewer
	viewStatusBlocked   = "BLOCKED"
)

// Request records a PENDING friendship initiated by initiatorID. The insert
// is conditional on no row existing for the canonical pair, so a concurrent
// request from the other direction fails closed instead of creating a
// duplicate.
func (s *FriendshipService) Request(ctx context.Context, initiatorID, receiverID string) (*domain.Friendship, error) {
	if initiatorID == receiverID {
		return nil, apperrors.NewValidationError("cannot send a friend request to yourself", nil)
	}
	initiator, err := s.users.GetByID(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": receiverID})
		}
		return nil, err
	}

	existing, err := s.friendships.Get(ctx, initiatorID, receiverID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	if existing != nil {
		if existing.Status == domain.FriendshipStatusRejected {
			// a rejected pair may be re-requested; clear the old row first
			if err := s.friendships.Delete(ctx, initiatorID, receiverID); err != nil && err != pgx.ErrNoRows {
				return nil, err
			}
		} else {
			return nil, friendshipConflict(existing.Status)
		}
	}

	friendship := domain.NewFriendship(initiatorID, receiverID)
	inserted, err := s.friendships.Create(ctx, friendship)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// reverse-direction race: re-read and report the winner's state
		current, err := s.friendships.Get(ctx, initiatorID, receiverID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewConflict("REQUEST_PENDING", "friend request already pending")
			}
			return nil, err
		}
		return nil, friendshipConflict(current.Status)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventFriendRequested,
		ActorID: initiatorID,
		Payload: events.FriendRequestedPayload{
			InitiatorID:   initiatorID,
			InitiatorName: initiator.DisplayName(),
			ReceiverID:    receiverID,
		},
	})
	return friendship, nil
}

// Accept flips a PENDING friendship to ACCEPTED. Only the stored receiver may
// accept; anyone else gets a forbidden error and the row is left untouched.
func (s *FriendshipService) Accept(ctx context.Context, initiatorID, receiverID, actingUserID string) (*domain.Friendship, error) {
	friendship, err := s.friendships.Get(ctx, initiatorID, receiverID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("friend request", nil)
		}
		return nil, err
	}
	if friendship.InitiatorID != initiatorID || friendship.ReceiverID() != actingUserID {
		return nil, apperrors.NewForbidden("only the request receiver may accept")
	}
	if friendship.Status != domain.FriendshipStatusPending {
		return nil, apperrors.NewInvalidState("friend request is not pending")
	}

	if err := s.friendships.UpdateStatus(ctx, initiatorID, receiverID, domain.FriendshipStatusAccepted); err != nil {
		return nil, err
	}
	friendship.Status = domain.FriendshipStatusAccepted
	friendship.UpdatedAt = time.Now()

	accepter, err := s.users.GetByID(ctx, actingUserID)
	accepterName := actingUserID
	if err == nil {
		accepterName = accepter.DisplayName()
	}
	s.publish(ctx, events.Event{
		Type:    events.EventFriendAccepted,
		ActorID: actingUserID,
		Payload: events.FriendAcceptedPayload{
			AccepterID:   actingUserID,
			AccepterName: accepterName,
			InitiatorID:  initiatorID,
		},
	})
	return friendship, nil
}

// Remove hard-deletes the relationship between two users. Either party may
// remove a pending or accepted friendship.
func (s *FriendshipService) Remove(ctx context.Context, userA, userB, actingUserID string) error {
	if actingUserID != userA && actingUserID != userB {
		return apperrors.NewForbidden("not a party to this friendship")
	}
	friendship, err := s.friendships.Get(ctx, userA, userB)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("friendship", nil)
		}
		return err
	}
	if friendship.Status == domain.FriendshipStatusBlocked && friendship.InitiatorID != actingUserID {
		// a block can only be lifted by the blocker
		return apperrors.NewForbidden("not a party to this friendship")
	}
	if err := s.friendships.Delete(ctx, userA, userB); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("friendship", nil)
		}
		return err
	}
	return nil
}

// Block records a BLOCKED state toward targetID, replacing any existing
// relationship. Subsequent requests in either direction are refused until
// the blocker removes the block.
func (s *FriendshipService) Block(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperrors.NewValidationError("cannot block yourself", nil)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
		}
		return err
	}

	existing, err := s.friendships.Get(ctx, actorID, targetID)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if existing != nil {
		if existing.Status == domain.FriendshipStatusBlocked {
			return nil
		}
		if err := s.friendships.Delete(ctx, actorID, targetID); err != nil && err != pgx.ErrNoRows {
			return err
		}
	}

	blocked := domain.NewFriendship(actorID, targetID)
	blocked.Status = domain.FriendshipStatusBlocked
	inserted, err := s.friendships.Create(ctx, blocked)
	if err != nil {
		return err
	}
	if !inserted {
		return apperrors.NewConflict("REQUEST_PENDING", "relationship changed concurrently, retry")
	}
	return nil
}

// Unblock lifts a block previously set by actorID.
func (s *FriendshipService) Unblock(ctx context.Context, actorID, targetID string) error {
	friendship, err := s.friendships.Get(ctx, actorID, targetID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("block", nil)
		}
		return err
	}
	if friendship.Status != domain.FriendshipStatusBlocked {
		return apperrors.NewInvalidState("relationship is not blocked")
	}
	if friendship.InitiatorID != actorID {
		return apperrors.NewForbidden("only the blocker may unblock")
	}
	return s.friendships.Delete(ctx, actorID, targetID)
}

// ListIncoming returns pending requests awaiting userID's decision.
func (s *FriendshipService) ListIncoming(ctx context.Context, userID string) ([]domain.Friendship, error) {
	return s.friendships.ListPendingByReceiver(ctx, userID)
}

// ListOutgoing returns pending requests userID has sent.
func (s *FriendshipService) ListOutgoing(ctx context.Context, userID string) ([]domain.Friendship, error) {
	return s.friendships.ListPendingByInitiator(ctx, userID)
}

// ListForViewer returns all relationships enriched with the other party's
// profile and a viewer-relative status.
func (s *FriendshipService) ListForViewer(ctx context.Context, viewerID string) ([]FriendView, error) {
	friendships, err := s.friendships.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]string, 0, len(friendships))
	for i := range friendships {
		otherIDs = append(otherIDs, friendships[i].OtherParty(viewerID))
	}
	profiles, err := s.users.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	views := make([]FriendView, 0, len(friendships))
	for i := range friendships {
		f := &friendships[i]
		otherID := f.OtherParty(viewerID)
		view := FriendView{
			UserID:    otherID,
			Status:    viewerStatus(f, viewerID),
			CreatedAt: f.CreatedAt,
		}
		if profile, ok := profiles[otherID]; ok {
			view.Name = profile.DisplayName()
			view.Email = profile.Email
			view.Username = profile.Username
		}
		views = append(views, view)
	}
	return views, nil
}

// AreFriends reports whether the pair holds an ACCEPTED friendship.
func (s *FriendshipService) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	friendship, err := s.friendships.Get(ctx, userA, userB)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return friendship.Status == domain.FriendshipStatusAccepted, nil
}

// InviteResult reports what an invite call actually did.
type InviteResult struct {
	// Requested is set when the email already belongs to a member and a
	// normal friend request was recorded instead of an invite.
	Requested bool
	InviteID  string
	// Token is the secret to mail to the invitee; only its hash is stored.
	Token string
}

// Invite brings a non-member into the archive by email. When the address
// already belongs to a member a regular friend request is sent instead.
func (s *FriendshipService) Invite(ctx context.Context, inviterID, email, name, message string) (*InviteResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	inviter, err := s.users.GetByID(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	if member, err := s.users.GetByEmail(ctx, email); err == nil {
		if _, err := s.Request(ctx, inviterID, member.ID); err != nil {
			return nil, err
		}
		return &InviteResult{Requested: true}, nil
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	pending, err := s.invites.ListPendingByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, existing := range pending {
		if existing.InviterID == inviterID && existing.ExpiresAt.After(time.Now()) {
			return nil, apperrors.NewConflict("REQUEST_PENDING", "an invite for this email is already pending")
		}
	}

	secret := uuid.NewString()
	hash, err := auth.HashInviteSecret(secret, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	invite := &domain.FriendInvite{
		ID:           uuid.NewString(),
		InviterID:    inviterID,
		InviteeEmail: email,
		InviteeName:  strings.TrimSpace(name),
		Message:      strings.TrimSpace(message),
		TokenHash:    hash,
		Status:       domain.InviteStatusPending,
		ExpiresAt:    time.Now().Add(s.inviteTTL),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventFriendInvited,
		ActorID: inviterID,
		Payload: events.FriendInvitedPayload{
			InviterID:    inviterID,
			InviterName:  inviter.DisplayName(),
			InviteeEmail: email,
			InviteID:     invite.ID,
		},
	})
	return &InviteResult{InviteID: invite.ID, Token: invite.ID + "." + secret}, nil
}

// AcceptInvite redeems an emailed invite token for the signed-in member and
// records the friendship as already accepted on both sides.
func (s *FriendshipService) AcceptInvite(ctx context.Context, userID, token string) error {
	inviteID, secret, ok := strings.Cut(token, ".")
	if !ok || inviteID == "" || secret == "" {
		return apperrors.NewValidationError("invalid invite token", nil)
	}
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("invite", nil)
		}
		return err
	}
	if invite.Status != domain.InviteStatusPending {
		return apperrors.NewInvalidState("invite is no longer pending")
	}
	if invite.Expired(time.Now()) {
		_ = s.invites.UpdateStatus(ctx, invite.ID, domain.InviteStatusExpired)
		return apperrors.NewInvalidState("invite has expired")
	}
	if err := auth.CompareInviteSecret(invite.TokenHash, secret); err != nil {
		return apperrors.NewForbidden("invite token mismatch")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(user.Email, invite.InviteeEmail) {
		return apperrors.NewForbidden("invite was issued to a different email")
	}
	if invite.InviterID == userID {
		return apperrors.NewValidationError("cannot accept your own invite", nil)
	}

	friendship := domain.NewFriendship(invite.InviterID, userID)
	friendship.Status = domain.FriendshipStatusAccepted
	inserted, err := s.friendships.Create(ctx, friendship)
	if err != nil {
		return err
	}
	if !inserted {
		current, err := s.friendships.Get(ctx, invite.InviterID, userID)
		if err != nil {
			return err
		}
		if current.Status != domain.FriendshipStatusAccepted {
			return friendshipConflict(current.Status)
		}
	}
	if err := s.invites.UpdateStatus(ctx, invite.ID, domain.InviteStatusAccepted); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventFriendAccepted,
		ActorID: userID,
		Payload: events.FriendAcceptedPayload{
			AccepterID:   userID,
			AccepterName: user.DisplayName(),
			InitiatorID:  invite.InviterID,
		},
	})
	return nil
}

func (s *FriendshipService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func viewerStatus(f *domain.Friendship, viewerID string) string {
	switch f.Status {
	case domain.FriendshipStatusAccepted:
		return viewStatusAccepted
	case domain.FriendshipStatusBlocked:
		return viewStatusBlocked
	case domain.FriendshipStatusPending:
		if f.InitiatorID == viewerID {
			return viewStatusPending
		}
		return viewStatusRequested
	default:
		return string(f.Status)
	}
}

func friendshipConflict(status domain.FriendshipStatus) error {
	switch status {
	case domain.FriendshipStatusAccepted:
		return apperrors.NewConflict("ALREADY_FRIENDS", "already friends")
	case domain.FriendshipStatusBlocked:
		return apperrors.NewConflict("BLOCKED", "cannot send friend request")
	default:
		return apperrors.NewConflict("REQUEST_PENDING", "friend request already pending")
	}
}
