// Package handlers provides HTTP request handling
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/registry"
)

// Common error messages
const (
	ErrMsgInvalidReqBody  = "Invalid request body"
	ErrMsgJobIDRequired   = "Job id is required"
	ErrMsgTaskIDRequired  = "Task id is required"
	ErrMsgJobNotFound     = "Job not found"
	ErrMsgJobCreateFailed = "Failed to create job"
	ErrMsgJobListFailed   = "Failed to list jobs"
	ErrMsgTaskListFailed  = "Failed to list tasks"
)

// respondWithError writes a JSON error body with the given status code
func respondWithError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// respondRegistryError maps registry errors onto HTTP status codes:
// InvalidConfig to 400, NotFound to 404, InvalidTransition to 409. Anything
// else is a server error.
func respondRegistryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, registry.ErrInvalidConfig):
		return respondWithError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrNotFound):
		return respondWithError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrInvalidTransition):
		return respondWithError(c, fiber.StatusConflict, err.Error())
	default:
		return respondWithError(c, fiber.StatusInternalServerError, err.Error())
	}
}
