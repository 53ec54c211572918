package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/dto"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/service"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// FriendsHandler manages friendship and invite endpoints.
type FriendsHandler struct {
	service *service.FriendshipService
}

// NewFriendsHandler constructs handler.
func NewFriendsHandler(friendshipService *service.FriendshipService) *FriendsHandler {
	return &FriendsHandler{service: friendshipService}
}

// List GET /friends.
func (h *FriendsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	views, err := h.service.ListForViewer(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	items := make([]dto.FriendResponse, 0, len(views))
	for _, v := range views {
		items = append(items, dto.FriendResponse{
			UserID:    v.UserID,
			Name:      v.Name,
			Email:     v.Email,
			Username:  v.Username,
			Status:    v.Status,
			CreatedAt: v.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Request POST /friends/requests.
func (h *FriendsHandler) Request(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.FriendRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReceiverID == "" {
		return apperrors.NewValidationError("receiver_id required", nil)
	}
	friendship, err := h.service.Request(c.UserContext(), user.ID, req.ReceiverID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": friendshipResponse(friendship)})
}

// Accept POST /friends/requests/:initiatorId/accept.
func (h *FriendsHandler) Accept(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	friendship, err := h.service.Accept(c.UserContext(), c.Params("initiatorId"), user.ID, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": friendshipResponse(friendship)})
}

// Remove DELETE /friends/:userId.
func (h *FriendsHandler) Remove(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Remove(c.UserContext(), user.ID, c.Params("userId"), user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Block POST /friends/blocks.
func (h *FriendsHandler) Block(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.BlockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if err := h.service.Block(c.UserContext(), user.ID, req.UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Unblock DELETE /friends/blocks/:userId.
func (h *FriendsHandler) Unblock(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Unblock(c.UserContext(), user.ID, c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListIncoming GET /friends/requests/incoming.
func (h *FriendsHandler) ListIncoming(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	friendships, err := h.service.ListIncoming(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": friendshipResponses(friendships)})
}

// ListOutgoing GET /friends/requests/outgoing.
func (h *FriendsHandler) ListOutgoing(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	friendships, err := h.service.ListOutgoing(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": friendshipResponses(friendships)})
}

// Invite POST /friends/invites.
func (h *FriendsHandler) Invite(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Invite(c.UserContext(), user.ID, req.Email, req.Name, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.InviteResponse{
		Requested: result.Requested,
		InviteID:  result.InviteID,
		Token:     result.Token,
	}})
}

// AcceptInvite POST /friends/invites/accept.
func (h *FriendsHandler) AcceptInvite(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.InviteAcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := h.service.AcceptInvite(c.UserContext(), user.ID, req.Token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func friendshipResponse(f *domain.Friendship) dto.FriendshipResponse {
	return dto.FriendshipResponse{
		InitiatorID: f.InitiatorID,
		ReceiverID:  f.ReceiverID(),
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func friendshipResponses(friendships []domain.Friendship) []dto.FriendshipResponse {
	items := make([]dto.FriendshipResponse, 0, len(friendships))
	for i := range friendships {
		items = append(items, friendshipResponse(&friendships[i]))
	}
	return items
}
