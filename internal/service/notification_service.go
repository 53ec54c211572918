package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/repository"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// NotificationService manages per-user notification feeds.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// PushInput describes a notification to append to a user's feed.
type PushInput struct {
	UserID  string
	Type    domain.NotificationType
	Title   string
	Message string
	Link    string
}

// Push appends an unread notification to the recipient's feed.
func (s *NotificationService) Push(ctx context.Context, input PushInput) (*domain.Notification, error) {
	if input.UserID == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	now := time.Now()
	notification := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Link:      input.Link,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkRead marks one of the user's notifications as read. Marking an
// already-read notification succeeds without effect; marking someone
// else's notification reports not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

// ListUnread returns the user's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, true, limit)
}

// ListAll returns the user's full feed regardless of read state, newest first.
func (s *NotificationService) ListAll(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, false, limit)
}

// CountUnread returns the number of unread notifications for badge display.
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}
