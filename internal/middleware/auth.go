package middleware

import (
	"givehub-backend/internal/pkg/constants"
	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userLocal = "user"

// RequireAuth rejects requests without a session user whose identity parses into an Actor.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := ActorFromContext(c); err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// AuthorizePermission gates a route on the caller's role via constants.PermissionRoles.
// Whether the caller owns the target row is left to the service.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(constants.PermissionRoles[permission]) == 0 {
			log.Error().Str("permission", permission).Str("path", c.Path()).Msg("permission has no roles configured")
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		actor, err := ActorFromContext(c)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !constants.AllowedRole(permission, actor.Role.String()) {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}

// GetUser returns the raw session user (nil when signed out).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}
