package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/repository"
)

// IdentityService maps external auth sessions to member records.
type IdentityService struct {
	validator auth.SessionValidator
	users     repository.UserRepository
	logger    *zap.Logger
}

// NewIdentityService builds the service.
func NewIdentityService(validator auth.SessionValidator, users repository.UserRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{validator: validator, users: users, logger: logger}
}

// Resolve validates the session token and returns the matching member,
// creating the record on first sight. An invalid or absent session yields
// (nil, nil): callers treat that as unauthenticated, not as a failure.
// The upsert is keyed on the provider's subject id, so resolving the same
// identity twice can never create two rows.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.validator.Validate(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.users.UpsertBySubject(ctx, repository.UserUpsert{
		SubjectID: session.SubjectID,
		Email:     session.Email,
		FirstName: session.FirstName,
		LastName:  session.LastName,
		Username:  session.Username,
		AvatarKey: session.AvatarKey,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
