package requests

import (
	"time"

	quotesvc "givehub-backend/internal/application/quotations"
	requestsvc "givehub-backend/internal/application/requests"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers serves requests and the quotations nested under them.
type Handlers struct {
	Requests   *requestsvc.Service
	Quotations *quotesvc.Service
}

type createRequestBody struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required,max=5000"`
	Deadline    *time.Time `json:"deadline"`
	FundType    string     `json:"fund_type" validate:"omitempty,oneof=general campaign"`
	CampaignID  *uuid.UUID `json:"campaign_id"`
}

type closeRequestBody struct {
	HasAcceptedQuotation bool `json:"has_accepted_quotation"`
}

type submitQuotationBody struct {
	Price         decimal.Decimal `json:"price"`
	Details       string          `json:"details" validate:"required,max=5000"`
	AttachmentURL *string         `json:"attachment_url" validate:"omitempty,url"`
}

// POST /api/v1/requests
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var body createRequestBody
	if err := validation.ParseBody(c, &body); err != nil {
		return response.FromError(c, err)
	}
	req, err := h.Requests.CreateRequest(c.UserContext(), actor, requestsvc.CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Deadline:    body.Deadline,
		FundType:    body.FundType,
		CampaignID:  body.CampaignID,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Request created successfully", h.Requests.ToView(*req), nil)
}

// GET /api/v1/requests/mine
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Requests.ListRequestsForCharity(c.UserContext(), actor.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Requests fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// GET /api/v1/requests/open?active=true
func (h *Handlers) ListOpen(c *fiber.Ctx) error {
	rows, err := h.Requests.ListOpenRequests(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Open requests fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// GET /api/v1/requests/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	req, err := h.Requests.GetRequestByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Request fetched successfully", h.Requests.ToView(*req), nil)
}

// POST /api/v1/requests/:id/close
func (h *Handlers) Close(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body closeRequestBody
	if len(c.Body()) > 0 {
		if err := validation.ParseBody(c, &body); err != nil {
			return response.FromError(c, err)
		}
	}
	if err := h.Requests.CloseRequest(c.UserContext(), actor, id, body.HasAcceptedQuotation); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Request closed successfully", nil, nil)
}

// POST /api/v1/requests/:id/quotations
func (h *Handlers) SubmitQuotation(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body submitQuotationBody
	if err := validation.ParseBody(c, &body); err != nil {
		return response.FromError(c, err)
	}
	q, err := h.Quotations.SubmitQuotation(c.UserContext(), actor, id, quotesvc.SubmitInput{
		Price:         body.Price,
		Details:       body.Details,
		AttachmentURL: body.AttachmentURL,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Quotation submitted successfully", q, nil)
}

// GET /api/v1/requests/:id/quotations
func (h *Handlers) ListQuotations(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := validation.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Quotations.ListQuotationsForRequest(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quotations fetched successfully", rows, fiber.Map{"count": len(rows)})
}
