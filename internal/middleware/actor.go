package middleware

import (
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActorFromContext turns the session user into the explicit identity passed to services.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, error) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return domain.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "Unauthorized")
	}
	rawID, _ := m["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "Unauthorized")
	}
	rawRole, _ := m["role"].(string)
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return domain.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "Unauthorized")
	}
	name, _ := m["display_name"].(string)
	email, _ := m["email"].(string)
	return domain.Actor{ID: id, Role: role, Name: name, Email: email}, nil
}
