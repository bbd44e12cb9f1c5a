package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

// CreateJob handles registering a new job and returns its generated identifier
func (h *APIHandler) CreateJob(c *fiber.Ctx) error {
	var params JobCreateParams
	if err := c.BodyParser(&params); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidReqBody)
	}
	if err := params.Validate(); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	job, err := h.registry.CreateJob(c.Context(), params.WebhookURL, params.WebhookSecret, params.Data)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(JobResponse{
		JobID:  job.JobID,
		Status: job.Status,
	})
}

// GetJob returns a job by its identifier
func (h *APIHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgJobIDRequired)
	}

	job, err := h.registry.GetJob(c.Context(), jobID)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(job)
}

// ListJobs returns all jobs, optionally filtered by status
func (h *APIHandler) ListJobs(c *fiber.Ctx) error {
	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := models.ParseJobStatus(statusStr)
		if err != nil {
			return respondWithError(c, fiber.StatusBadRequest, err.Error())
		}
		opts.Status = &status
	}

	jobs, err := h.registry.ListJobs(c.Context(), opts)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, ErrMsgJobListFailed)
	}

	return c.JSON(fiber.Map{"jobs": jobs})
}

// UpdateJob merges parameters into the job's configuration
func (h *APIHandler) UpdateJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgJobIDRequired)
	}

	var params JobUpdateParams
	if err := c.BodyParser(&params); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidReqBody)
	}

	job, err := h.registry.UpdateJob(c.Context(), jobID, params.Parameters)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(JobResponse{
		JobID:  job.JobID,
		Status: job.Status,
	})
}

// AbortJob aborts a job and all of its non-terminal tasks
func (h *APIHandler) AbortJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgJobIDRequired)
	}

	job, err := h.registry.AbortJob(c.Context(), jobID)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(JobResponse{
		JobID:  job.JobID,
		Status: job.Status,
	})
}
