package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/dto"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/service"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// NotificationsHandler manages the per-user notification feed.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications?unread=true&limit=50.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		notifications []domain.Notification
		err           error
	)
	if c.QueryBool("unread") {
		notifications, err = h.service.ListUnread(c.UserContext(), user.ID, limit)
	} else {
		notifications, err = h.service.ListAll(c.UserContext(), user.ID, limit)
	}
	if err != nil {
		return err
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.All {
		if err := h.service.MarkAllRead(c.UserContext(), user.ID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	if req.NotificationID == "" {
		return apperrors.NewValidationError("notification_id or all required", nil)
	}
	if err := h.service.MarkRead(c.UserContext(), user.ID, req.NotificationID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
