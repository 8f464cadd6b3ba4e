package quotations

import (
	acceptsvc "givehub-backend/internal/application/acceptance"
	quotesvc "givehub-backend/internal/application/quotations"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Quotations *quotesvc.Service
	Acceptance *acceptsvc.Service
}

// GET /api/v1/quotations/mine
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Quotations.ListQuotationsForVendor(c.UserContext(), actor.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quotations fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// DELETE /api/v1/quotations/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Quotations.DeleteQuotation(c.UserContext(), actor, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quotation deleted successfully", nil, nil)
}

// POST /api/v1/quotations/:id/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Acceptance.AcceptQuotation(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Quotation accepted", txn, nil)
}
