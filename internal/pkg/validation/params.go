package validation

import (
	"givehub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UUIDParam parses a required path parameter.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := c.Params(name)
	if raw == "" {
		return uuid.Nil, apperrors.Validation(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation("Invalid " + name + " format")
	}
	return id, nil
}

// OptionalUUIDQuery parses a query parameter that may be absent.
func OptionalUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation("Invalid " + name + " format")
	}
	return &id, nil
}
