package quotations

import (
	"context"
	"errors"
	"strings"
	"time"

	"givehub-backend/internal/application/marketevents"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Metrics *metrics.Marketplace
	Now     func() time.Time
}

type SubmitInput struct {
	Price         decimal.Decimal
	Details       string
	AttachmentURL *string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// SubmitQuotation records a vendor's bid and bumps the request's quotation_count in the
// same DB transaction. A vendor holds at most one quotation per request.
func (s *Service) SubmitQuotation(ctx context.Context, actor domain.Actor, requestID uuid.UUID, in SubmitInput) (*domain.Quotation, error) {
	if !actor.Is(domain.RoleVendor) {
		return nil, apperrors.Forbidden("Only vendors can submit quotations")
	}
	details := strings.TrimSpace(in.Details)
	if !in.Price.IsPositive() {
		return nil, apperrors.Validation("price must be greater than zero")
	}
	if details == "" {
		return nil, apperrors.Validation("details are required")
	}
	var attachment *string
	if in.AttachmentURL != nil && strings.TrimSpace(*in.AttachmentURL) != "" {
		a := strings.TrimSpace(*in.AttachmentURL)
		attachment = &a
	}

	q := domain.Quotation{
		RequestID:     requestID,
		VendorID:      actor.ID,
		Price:         in.Price.Round(2),
		Details:       details,
		AttachmentURL: attachment,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req domain.Request
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Request not found")
			}
			return err
		}
		if !domain.IsOpenAndActive(&req, s.now()) {
			return apperrors.State("Request is not open for quotations")
		}

		var existing int64
		if err := tx.Model(&domain.Quotation{}).Where("request_id = ? AND vendor_id = ?", requestID, actor.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.Conflict("You have already submitted a quotation for this request")
		}

		if err := tx.Create(&q).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("You have already submitted a quotation for this request")
			}
			return err
		}
		res := tx.Model(&domain.Request{}).
			Where("id = ? AND status = ?", requestID, domain.RequestStatusOpen).
			Update("quotation_count", gorm.Expr("quotation_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.State("Request is not open for quotations")
		}
		return marketevents.Append(tx, domain.AggregateRequest, requestID, domain.EventQuotationSubmitted, actor, map[string]interface{}{
			"quotation_id": q.ID,
			"price":        q.Price.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.QuotationSubmitted()
	log.Ctx(ctx).Info().Str("quotation_id", q.ID.String()).Str("request_id", requestID.String()).Str("actor_id", actor.ID.String()).Msg("quotation submitted")
	return &q, nil
}

// ListQuotationsForRequest returns the request's quotations newest first. Charities see
// quotations on their own requests, vendors only their own, admins everything.
func (s *Service) ListQuotationsForRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) ([]domain.Quotation, error) {
	db := s.DB.WithContext(ctx)
	var req domain.Request
	if err := db.Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	q := db.Where("request_id = ?", requestID)
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleCharity:
		if req.CreatedBy != actor.ID {
			return nil, apperrors.Forbidden("Only the owning charity can view these quotations")
		}
	case domain.RoleVendor:
		q = q.Where("vendor_id = ?", actor.ID)
	default:
		return nil, apperrors.Forbidden("Not allowed to view quotations")
	}

	var out []domain.Quotation
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListQuotationsForVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Quotation, error) {
	var out []domain.Quotation
	err := s.DB.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// DeleteQuotation withdraws a vendor's own, not yet accepted, quotation.
func (s *Service) DeleteQuotation(ctx context.Context, actor domain.Actor, quotationID uuid.UUID) error {
	var requestID uuid.UUID
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q domain.Quotation
		if err := tx.Where("id = ?", quotationID).First(&q).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Quotation not found")
			}
			return err
		}
		if q.VendorID != actor.ID {
			return apperrors.Forbidden("You can only delete your own quotations")
		}
		if q.IsAccepted {
			return apperrors.State("An accepted quotation cannot be deleted")
		}

		res := tx.Where("id = ? AND is_accepted = ?", quotationID, false).Delete(&domain.Quotation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Quotation was accepted concurrently")
		}
		if err := tx.Model(&domain.Request{}).
			Where("id = ? AND quotation_count > 0", q.RequestID).
			Update("quotation_count", gorm.Expr("quotation_count - 1")).Error; err != nil {
			return err
		}
		requestID = q.RequestID
		return marketevents.Append(tx, domain.AggregateRequest, q.RequestID, domain.EventQuotationDeleted, actor, map[string]interface{}{
			"quotation_id": quotationID,
		})
	})
	if err != nil {
		return err
	}
	s.Metrics.QuotationDeleted()
	log.Ctx(ctx).Info().Str("quotation_id", quotationID.String()).Str("request_id", requestID.String()).Str("actor_id", actor.ID.String()).Msg("quotation deleted")
	return nil
}
