package handlers

import (
	"context"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

// ApproveTaskStart approves a task waiting for its start approval
func (h *APIHandler) ApproveTaskStart(c *fiber.Ctx) error {
	return h.handleTaskOp(c, h.registry.ApproveTaskStart)
}

// ApproveTaskContinue approves a task paused at a continue checkpoint
func (h *APIHandler) ApproveTaskContinue(c *fiber.Ctx) error {
	return h.handleTaskOp(c, h.registry.ApproveTaskContinue)
}

// RerunTask resets a terminal task to pending for re-dispatch
func (h *APIHandler) RerunTask(c *fiber.Ctx) error {
	return h.handleTaskOp(c, h.registry.RerunTask)
}

// ListTasks returns all tasks known for a job
func (h *APIHandler) ListTasks(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgJobIDRequired)
	}

	tasks, err := h.registry.ListTasks(c.Context(), jobID)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

// handleTaskOp parses the common {taskId} body and runs the given registry
// operation against it
func (h *APIHandler) handleTaskOp(c *fiber.Ctx, op func(context.Context, string, string) (*models.Task, error)) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgJobIDRequired)
	}

	var params TaskParams
	if err := c.BodyParser(&params); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidReqBody)
	}
	if err := params.Validate(); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := op(c.Context(), jobID, params.TaskID)
	if err != nil {
		return respondRegistryError(c, err)
	}

	job, err := h.registry.GetJob(c.Context(), jobID)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(JobResponse{
		JobID:  job.JobID,
		Status: job.Status,
		Task:   task,
	})
}
