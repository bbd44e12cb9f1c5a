package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/registry"
)

// HandleWebhook receives webhook callbacks from the AI pipeline and applies
// the reported task transition
func (h *APIHandler) HandleWebhook(c *fiber.Ctx) error {
	var event registry.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidReqBody)
	}
	if err := event.Validate(); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.registry.HandleWebhook(c.Context(), event)
	if err != nil {
		return respondRegistryError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Webhook received successfully",
		"task":    task,
	})
}
