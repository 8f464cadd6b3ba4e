package campaigns

import (
	campaignsvc "givehub-backend/internal/application/campaigns"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *campaignsvc.Service
}

type createCampaignRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
}

// POST /api/v1/campaigns
func (h *Handlers) CreateCampaign(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req createCampaignRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	campaign, err := h.Service.CreateCampaign(c.UserContext(), actor, campaignsvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Campaign created successfully", campaign, nil)
}

// GET /api/v1/campaigns/mine
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListCampaignsForCharity(c.UserContext(), actor.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Campaigns fetched successfully", rows, fiber.Map{"count": len(rows)})
}
