package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/logger"
)

// Authentication header names. Job-management routes carry the shared secret
// in SecretHeader; pipeline callbacks sign with SignatureHeader.
const (
	SecretHeader    = "X-Webhook-Secret"
	SignatureHeader = "x-webhook-signature"
)

// SharedSecret returns a middleware that rejects requests whose header does
// not carry the configured shared secret
func SharedSecret(header, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(header)
		if provided == "" {
			logger.Warnf("Missing %s header", header)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing " + header + " header",
			})
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			logger.Warnf("Invalid %s header", header)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid " + header + " header",
			})
		}

		return c.Next()
	}
}
