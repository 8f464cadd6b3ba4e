package donations

import (
	"encoding/json"
	"time"

	donationsvc "givehub-backend/internal/application/donations"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers serve the donations API. Bodies are flat JSON ({"error": "..."} on failure)
// rather than the /api/v1 envelope.
type Handlers struct {
	Service *donationsvc.Service
}

type recordBody struct {
	DonorID      string          `json:"donorId"`
	RecipientID  string          `json:"recipientId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	DonationType string          `json:"donationType"`
	Metadata     any             `json:"metadata"`
}

type donationView struct {
	ID           uuid.UUID       `json:"id"`
	Donor        string          `json:"donor"`
	DonorID      string          `json:"donorId"`
	RecipientID  string          `json:"recipientId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	DonationType string          `json:"donationType"`
	Timestamp    time.Time       `json:"timestamp"`
	Metadata     json.RawMessage `json:"metadata"`
	TxHash       string          `json:"txHash"`
}

func toView(d domain.Donation) donationView {
	meta := json.RawMessage("null")
	if len(d.Metadata) > 0 {
		meta = json.RawMessage(d.Metadata)
	}
	return donationView{
		ID:           d.ID,
		Donor:        d.Donor,
		DonorID:      d.DonorID,
		RecipientID:  d.RecipientID,
		Amount:       d.Amount,
		Currency:     d.Currency,
		DonationType: d.DonationType,
		Timestamp:    d.Timestamp,
		Metadata:     meta,
		TxHash:       d.TxHash,
	}
}

// POST /donations
func (h *Handlers) Record(c *fiber.Ctx) error {
	var body recordBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}
	d, err := h.Service.Record(c.UserContext(), donationsvc.RecordInput{
		DonorID:      body.DonorID,
		RecipientID:  body.RecipientID,
		Amount:       body.Amount,
		Currency:     body.Currency,
		DonationType: body.DonationType,
		Metadata:     body.Metadata,
	})
	if err != nil {
		return writeError(c, err, "Failed to record donation")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Donation recorded successfully",
		"donationId": d.ID,
		"txHash":     d.TxHash,
	})
}

// GET /donations/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid donation id"})
	}
	d, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to fetch donation")
	}
	return c.JSON(toView(*d))
}

// GET /donations?count=N
func (h *Handlers) List(c *fiber.Ctx) error {
	rows, err := h.Service.List(c.UserContext(), c.QueryInt("count", donationsvc.DefaultListCount))
	if err != nil {
		return writeError(c, err, "Failed to fetch donations")
	}
	out := make([]donationView, 0, len(rows))
	for _, d := range rows {
		out = append(out, toView(d))
	}
	return c.JSON(out)
}

func writeError(c *fiber.Ctx, err error, fallback string) error {
	if typed := apperrors.As(err); typed != nil {
		switch typed.Code() {
		case apperrors.CodeValidation, apperrors.CodeNotFound:
			return c.Status(apperrors.MetadataFor(typed.Code()).HTTPStatus).JSON(fiber.Map{"error": typed.Message()})
		}
	}
	c.Locals(response.ErrorLocal, err)
	log.Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}
