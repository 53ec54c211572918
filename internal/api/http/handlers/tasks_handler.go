package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/api/dto"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/service"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// TasksHandler exposes processing task status.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// Get GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	view, err := h.service.GetStatusForViewer(c.UserContext(), c.Params("id"), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TaskResponse{
		ID:            view.ID,
		Type:          view.Type,
		Status:        view.Status,
		CurrentStep:   view.CurrentStep,
		Steps:         view.Steps,
		ErrorMessage:  view.ErrorMessage,
		ExternalJobID: view.ExternalJobID,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}})
}

func taskResponseFromDomain(task *domain.Task) dto.TaskResponse {
	resp := dto.TaskResponse{
		ID:           task.ID,
		Type:         task.Type,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if task.ExternalJobID != nil {
		resp.ExternalJobID = *task.ExternalJobID
	}
	if payload, ok := task.Payload.(domain.VideoProcessingPayload); ok {
		resp.CurrentStep = payload.CurrentStep
		resp.Steps = payload.Steps
	}
	return resp
}
