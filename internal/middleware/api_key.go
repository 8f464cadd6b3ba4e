package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const apiKeyHeader = "x-api-key"

// RequireAPIKey guards the donations control plane. An unset server key rejects everything.
func RequireAPIKey(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(apiKeyHeader)
		if expected == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			log.Warn().Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("api key rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}
