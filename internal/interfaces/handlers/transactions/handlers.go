package transactions

import (
	purchasesvc "givehub-backend/internal/application/purchases"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *purchasesvc.Service
}

type deliverBody struct {
	DeliveryPhotoRef string `json:"delivery_photo_ref" validate:"required"`
}

type reportIssueBody struct {
	IssueDetails string `json:"issue_details" validate:"required,max=2000"`
}

// GET /api/v1/transactions/mine?campaign_id=
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	campaignID, err := validation.OptionalUUIDQuery(c, "campaign_id")
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListForActor(c.UserContext(), actor, campaignID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// GET /api/v1/transactions/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Service.GetTransaction(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction fetched successfully", txn, nil)
}

// POST /api/v1/transactions/:id/ship
func (h *Handlers) Ship(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Service.MarkShipping(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction marked as shipping", txn, nil)
}

// POST /api/v1/transactions/:id/deliver
func (h *Handlers) Deliver(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body deliverBody
	if err := validation.ParseBody(c, &body); err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Service.MarkDelivered(c.UserContext(), actor, id, body.DeliveryPhotoRef)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction marked as delivered", txn, nil)
}

// POST /api/v1/transactions/:id/release-payment
func (h *Handlers) ReleasePayment(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Service.ReleasePayment(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment released", txn, nil)
}

// POST /api/v1/transactions/:id/report-issue
func (h *Handlers) ReportIssue(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body reportIssueBody
	if err := validation.ParseBody(c, &body); err != nil {
		return response.FromError(c, err)
	}
	txn, err := h.Service.ReportIssue(c.UserContext(), actor, id, body.IssueDetails)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Issue reported", txn, nil)
}
