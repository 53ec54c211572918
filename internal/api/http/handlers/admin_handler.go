package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/dto"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/observability"
	"github.com/heritage-archive/archive-service/internal/service"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// AdminHandler exposes archive administration endpoints. Routes using it are
// guarded by auth.RequireAdmin.
type AdminHandler struct {
	media   *service.MediaService
	tasks   *service.TaskService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(mediaService *service.MediaService, taskService *service.TaskService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{media: mediaService, tasks: taskService, metrics: metrics}
}

// ListMedia GET /admin/media.
func (h *AdminHandler) ListMedia(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	media, err := h.media.ListAwaitingReview(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mediaResponses(media)})
}

// ApproveMedia POST /admin/media/:id/approve.
func (h *AdminHandler) ApproveMedia(c *fiber.Ctx) error {
	admin, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.media.Approve(c.UserContext(), admin.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RejectMedia POST /admin/media/:id/reject.
func (h *AdminHandler) RejectMedia(c *fiber.Ctx) error {
	admin, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RejectMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.media.Reject(c.UserContext(), admin.ID, c.Params("id"), req.Reason); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMetrics GET /admin/metrics.
func (h *AdminHandler) GetMetrics(c *fiber.Ctx) error {
	snap := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"requests":       snap.Requests,
		"errors":         snap.Errors,
		"total_duration": snap.TotalDuration,
	}})
}

// ListBatchJobs GET /admin/batch-jobs.
func (h *AdminHandler) ListBatchJobs(c *fiber.Ctx) error {
	jobs, err := h.tasks.ListQueueJobs(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.BatchJobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, dto.BatchJobResponse{
			JobID:        job.JobID,
			JobName:      job.JobName,
			Status:       job.Status,
			StatusReason: job.StatusReason,
			CreatedAt:    job.CreatedAt,
			StartedAt:    job.StartedAt,
			StoppedAt:    job.StoppedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
