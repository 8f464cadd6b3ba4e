package marketevents

import (
	eventsvc "givehub-backend/internal/application/marketevents"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GET /api/v1/market-events/:aggregate_id
func (h *Handlers) ListForAggregate(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "aggregate_id")
	if err != nil {
		return response.FromError(c, err)
	}
	events, err := h.Service.ListForAggregate(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Market events fetched successfully", events, fiber.Map{"count": len(events)})
}
