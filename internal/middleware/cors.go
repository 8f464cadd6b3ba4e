package middleware

import (
	"strings"

	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig lists who may call the API from a browser: origins ending with
// AllowedSuffix, local development origins, and anyone presenting DevPassword.
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

const (
	corsAllowHeaders = "Content-Type, dev-password, x-api-key, Idempotency-Key, X-Trace-Id"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		if !originAllowed(c, cfg, suffix, origin) {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, fiber.Map{})
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
		c.Vary(fiber.HeaderOrigin)
		if c.Method() == fiber.MethodOptions {
			c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func originAllowed(c *fiber.Ctx, cfg CORSConfig, suffix, origin string) bool {
	lower := strings.ToLower(origin)
	switch {
	case strings.HasPrefix(lower, "http://localhost:"), strings.HasPrefix(lower, "http://127.0.0.1:"):
		return true
	case suffix != "" && strings.HasSuffix(lower, suffix):
		return true
	case cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword:
		return true
	}
	return false
}
