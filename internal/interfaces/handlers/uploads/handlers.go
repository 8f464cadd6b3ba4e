package uploads

import (
	uploadsvc "givehub-backend/internal/application/uploads"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"
	"givehub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name" validate:"required"`
}

// QuotationAttachment POST /api/v1/uploads/quotation-attachment
func (h *Handlers) QuotationAttachment(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req uploadRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.QuotationAttachmentURL(c.UserContext(), actor.ID, req.FileName)
	if err != nil {
		log.Error().Err(err).Str("bucket", uploadsvc.BucketQuotationAttachments).Msg("upload: failed to generate signed URL")
		return response.FromError(c, err)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}

// DeliveryPhoto POST /api/v1/uploads/delivery-photo
func (h *Handlers) DeliveryPhoto(c *fiber.Ctx) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var req uploadRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.DeliveryPhotoURL(c.UserContext(), actor.ID, req.FileName)
	if err != nil {
		log.Error().Err(err).Str("bucket", uploadsvc.BucketDeliveryPhotos).Msg("upload: failed to generate signed URL")
		return response.FromError(c, err)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
