package acceptance

import (
	"context"
	"errors"
	"time"

	"givehub-backend/internal/application/emails"
	"givehub-backend/internal/application/marketevents"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const unknownVendor = "Unknown vendor"

// Notifier is told about a winning quotation once the acceptance has committed.
type Notifier interface {
	SendQuotationAccepted(ctx context.Context, to emails.Recipient, requestTitle string, amount decimal.Decimal, transactionID string) error
}

type Service struct {
	DB       *gorm.DB
	Notifier Notifier
	Metrics  *metrics.Marketplace
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// AcceptQuotation closes the request, marks the quotation accepted (all siblings not
// accepted) and opens a pending transaction, atomically. Of two concurrent acceptances on
// one request exactly one wins; the other gets a ConflictError and changes nothing.
func (s *Service) AcceptQuotation(ctx context.Context, actor domain.Actor, quotationID uuid.UUID) (*domain.Transaction, error) {
	if !actor.Is(domain.RoleCharity) {
		return nil, apperrors.Forbidden("Only charities can accept quotations")
	}

	var (
		txn    domain.Transaction
		req    domain.Request
		vendor domain.User
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q domain.Quotation
		if err := tx.Where("id = ?", quotationID).First(&q).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Quotation not found")
			}
			return err
		}
		if err := tx.Where("id = ?", q.RequestID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Request not found")
			}
			return err
		}
		if req.CreatedBy != actor.ID {
			return apperrors.Forbidden("Only the charity that owns the request can accept quotations")
		}
		if req.HasAcceptedQuotation {
			return apperrors.Conflict("A quotation has already been accepted for this request")
		}
		if req.Status != domain.RequestStatusOpen {
			return apperrors.State("Request is closed")
		}
		if !domain.IsOpenAndActive(&req, s.now()) {
			return apperrors.State("Request deadline has passed")
		}

		res := tx.Model(&domain.Request{}).
			Where("id = ? AND status = ? AND has_accepted_quotation = ?", req.ID, domain.RequestStatusOpen, false).
			Updates(map[string]interface{}{
				"status":                 domain.RequestStatusClosed,
				"has_accepted_quotation": true,
				"updated_at":             s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("A quotation has already been accepted for this request")
		}

		res = tx.Model(&domain.Quotation{}).
			Where("id = ? AND request_id = ?", q.ID, req.ID).
			Update("is_accepted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Quotation was withdrawn concurrently")
		}
		if err := tx.Model(&domain.Quotation{}).
			Where("request_id = ? AND id <> ?", req.ID, q.ID).
			Update("is_accepted", false).Error; err != nil {
			return err
		}

		vendorName := unknownVendor
		if err := tx.Where("user_id = ?", q.VendorID).First(&vendor).Error; err == nil && vendor.DisplayName != "" {
			vendorName = vendor.DisplayName
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		txn = domain.Transaction{
			CampaignID:  req.CampaignID,
			VendorID:    q.VendorID,
			VendorName:  vendorName,
			Amount:      q.Price,
			Status:      domain.TransactionStatusPending,
			Description: req.Title,
			Details: domain.EncodeDetails(domain.TransactionDetails{
				Items:            []string{req.Title},
				QuotationDetails: q.Details,
				AttachmentURL:    q.AttachmentURL,
			}),
			QuotationID: q.ID,
			RequestID:   req.ID,
			CharityID:   actor.ID,
		}
		if err := tx.Create(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("A quotation has already been accepted for this request")
			}
			return err
		}

		if err := marketevents.Append(tx, domain.AggregateRequest, req.ID, domain.EventQuotationAccepted, actor, map[string]interface{}{
			"quotation_id":   q.ID,
			"transaction_id": txn.ID,
			"vendor_id":      q.VendorID,
		}); err != nil {
			return err
		}
		return marketevents.Append(tx, domain.AggregateTransaction, txn.ID, domain.EventTransactionCreated, actor, map[string]interface{}{
			"request_id": req.ID,
			"amount":     txn.Amount.StringFixed(2),
			"fund_type":  txn.FundType(),
		})
	})
	if err != nil {
		if apperrors.Is(err, apperrors.CodeConflict) {
			s.Metrics.Acceptance("conflict")
			log.Ctx(ctx).Warn().Str("quotation_id", quotationID.String()).Str("actor_id", actor.ID.String()).Msg("quotation acceptance lost race")
		}
		return nil, err
	}

	s.Metrics.Acceptance("accepted")
	log.Ctx(ctx).Info().
		Str("quotation_id", quotationID.String()).
		Str("request_id", req.ID.String()).
		Str("tx_id", txn.ID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("quotation accepted")

	if s.Notifier != nil && vendor.Email != "" {
		to := emails.Recipient{Email: vendor.Email, Name: vendor.DisplayName}
		if err := s.Notifier.SendQuotationAccepted(ctx, to, req.Title, txn.Amount, txn.ID.String()); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to notify vendor of accepted quotation")
		}
	}
	return &txn, nil
}
