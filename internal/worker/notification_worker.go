package worker

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/service"
)

// NotificationWorker translates domain events into notification feed entries
// plus outbound email/webhook deliveries. It runs on the dispatcher's queue,
// so a failed handler is retried there rather than blocking the request that
// published the event.
type NotificationWorker struct {
	notifications *service.NotificationService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationWorker creates the worker.
func NewNotificationWorker(notifications *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events.
func (w *NotificationWorker) RegisterHandlers() {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Subscribe(events.EventFriendRequested, w.handleFriendRequested)
	w.dispatcher.Subscribe(events.EventFriendAccepted, w.handleFriendAccepted)
	w.dispatcher.Subscribe(events.EventFriendInvited, w.handleFriendInvited)
	w.dispatcher.Subscribe(events.EventMediaApproved, w.handleMediaApproved)
	w.dispatcher.Subscribe(events.EventMediaRejected, w.handleMediaRejected)
	w.dispatcher.Subscribe(events.EventTaskCompleted, w.handleTaskCompleted)
}

func (w *NotificationWorker) handleFriendRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FriendRequestedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	_, err := w.notifications.Push(ctx, service.PushInput{
		UserID:  payload.ReceiverID,
		Type:    domain.NotificationTypeFriendRequest,
		Title:   "New friend request",
		Message: payload.InitiatorName + " sent you a friend request",
		Link:    "/friends/requests",
	})
	if err != nil {
		return err
	}
	w.sendEmailStub(event)
	return nil
}

func (w *NotificationWorker) handleFriendAccepted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FriendAcceptedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	_, err := w.notifications.Push(ctx, service.PushInput{
		UserID:  payload.InitiatorID,
		Type:    domain.NotificationTypeFriendAccepted,
		Title:   "Friend request accepted",
		Message: payload.AccepterName + " accepted your friend request",
		Link:    "/friends",
	})
	if err != nil {
		return err
	}
	w.sendWebhookStub(event)
	return nil
}

func (w *NotificationWorker) handleFriendInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FriendInvitedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	// invitee has no account yet, so the only delivery channel is email
	w.logger.Info("friend invite issued",
		zap.String("invite_id", payload.InviteID),
		zap.String("inviter_id", payload.InviterID))
	w.sendEmailStub(event)
	return nil
}

func (w *NotificationWorker) handleMediaApproved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MediaReviewedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	_, err := w.notifications.Push(ctx, service.PushInput{
		UserID:  payload.OwnerID,
		Type:    domain.NotificationTypeMediaApproved,
		Title:   "Recording published",
		Message: "\"" + payload.MediaName + "\" was approved and is now visible",
		Link:    "/media/" + payload.MediaID,
	})
	if err != nil {
		return err
	}
	w.sendEmailStub(event)
	return nil
}

func (w *NotificationWorker) handleMediaRejected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MediaReviewedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	message := "\"" + payload.MediaName + "\" was not approved for publication"
	if payload.Reason != "" {
		message += ": " + payload.Reason
	}
	_, err := w.notifications.Push(ctx, service.PushInput{
		UserID:  payload.OwnerID,
		Type:    domain.NotificationTypeMediaRejected,
		Title:   "Recording not approved",
		Message: message,
		Link:    "/media/" + payload.MediaID,
	})
	if err != nil {
		return err
	}
	w.sendEmailStub(event)
	return nil
}

func (w *NotificationWorker) handleTaskCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskCompletedPayload)
	if !ok {
		w.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}
	_, err := w.notifications.Push(ctx, service.PushInput{
		UserID:  payload.OwnerID,
		Type:    domain.NotificationTypeTranscriptDone,
		Title:   "Transcript ready",
		Message: "Your recording finished processing and the transcript is ready for review",
		Link:    "/media/" + payload.MediaID + "/transcript",
	})
	if err != nil {
		return err
	}
	w.sendWebhookStub(event)
	return nil
}

func (w *NotificationWorker) sendEmailStub(event events.Event) {
	if strings.TrimSpace(w.cfg.EmailFrom) == "" {
		return
	}
	w.logger.Debug("sendEmailStub",
		zap.String("from", w.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)))
}

func (w *NotificationWorker) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(w.cfg.WebhookURL) == "" {
		return
	}
	w.logger.Debug("sendWebhookStub",
		zap.String("url", w.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
