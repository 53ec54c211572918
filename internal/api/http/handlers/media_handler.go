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

// MediaHandler manages archive item endpoints.
type MediaHandler struct {
	service *service.MediaService
}

// NewMediaHandler constructs handler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{service: mediaService}
}

// UploadURL POST /media/upload-url.
func (h *MediaHandler) UploadURL(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UploadURLRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	url, err := h.service.IssueUploadURL(c.UserContext(), user.ID, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UploadURLResponse{
		URL:       url.URL,
		Key:       url.Key,
		ExpiresAt: url.ExpiresAt,
	}})
}

// Register POST /media.
func (h *MediaHandler) Register(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RegisterMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	media, err := h.service.Register(c.UserContext(), service.RegisterInput{
		UserID:          user.ID,
		Name:            req.Name,
		Description:     req.Description,
		StorageKey:      req.StorageKey,
		SizeBytes:       req.SizeBytes,
		MimeType:        req.MimeType,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": mediaResponse(media)})
}

// ListOwn GET /media.
func (h *MediaHandler) ListOwn(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	media, err := h.service.ListOwn(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mediaResponses(media)})
}

// Get GET /media/:id.
func (h *MediaHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	media, err := h.service.GetForViewer(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mediaResponse(media)})
}

// StartProcessing POST /media/:id/processing.
func (h *MediaHandler) StartProcessing(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	task, err := h.service.StartProcessing(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": taskResponseFromDomain(task)})
}

// GetTranscript GET /media/:id/transcript.
func (h *MediaHandler) GetTranscript(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	transcript, err := h.service.GetCurrentTranscript(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transcriptResponse(transcript)})
}

// ListTranscriptVersions GET /media/:id/transcript/versions.
func (h *MediaHandler) ListTranscriptVersions(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	versions, err := h.service.ListTranscriptVersions(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.TranscriptResponse, 0, len(versions))
	for i := range versions {
		out = append(out, transcriptResponse(&versions[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

func transcriptResponse(transcript *domain.Transcript) dto.TranscriptResponse {
	return dto.TranscriptResponse{
		ID:           transcript.ID,
		MediaID:      transcript.MediaID,
		Text:         transcript.Text,
		Summary:      transcript.Summary,
		Keywords:     transcript.Keywords,
		Status:       transcript.Status,
		UserApproved: transcript.UserApproved,
		CreatedAt:    transcript.CreatedAt,
	}
}

// ReviewTranscript POST /media/:id/transcript/review.
func (h *MediaHandler) ReviewTranscript(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TranscriptReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ReviewTranscript(c.UserContext(), user.ID, c.Params("id"), req.Approved, req.Visibility); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mediaResponse(media *domain.Media) dto.MediaResponse {
	return dto.MediaResponse{
		ID:               media.ID,
		UserID:           media.UserID,
		Type:             media.Type,
		Name:             media.Name,
		Description:      media.Description,
		Visibility:       media.Visibility,
		StorageKey:       media.StorageKey,
		SizeBytes:        media.SizeBytes,
		MimeType:         media.MimeType,
		DurationSeconds:  media.DurationSeconds,
		ApprovalStatus:   media.ApprovalStatus,
		ModerationStatus: media.ModerationStatus,
		CreatedAt:        media.CreatedAt,
	}
}

func mediaResponses(media []domain.Media) []dto.MediaResponse {
	items := make([]dto.MediaResponse, 0, len(media))
	for i := range media {
		items = append(items, mediaResponse(&media[i]))
	}
	return items
}
