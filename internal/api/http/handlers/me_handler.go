package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/dto"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/service"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// MeHandler exposes the resolved identity of the caller.
type MeHandler struct {
	notifications *service.NotificationService
}

// NewMeHandler constructs handler.
func NewMeHandler(notifications *service.NotificationService) *MeHandler {
	return &MeHandler{notifications: notifications}
}

// Get GET /me.
func (h *MeHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	unread, err := h.notifications.CountUnread(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		ID:                  user.ID,
		Email:               user.Email,
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		Username:            user.Username,
		Role:                user.Role,
		UnreadNotifications: unread,
		CreatedAt:           user.CreatedAt,
	}})
}
