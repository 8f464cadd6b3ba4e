package purchases

import (
	"context"
	"errors"
	"strings"
	"time"

	"givehub-backend/internal/application/emails"
	"givehub-backend/internal/application/marketevents"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/infrastructure/ledger"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxIssueDetailsLength = 2000

// PaymentReleaser moves the funds for a completed purchase to the vendor.
type PaymentReleaser interface {
	ReleasePayment(ctx context.Context, entry ledger.PayoutEntry) (*ledger.Receipt, error)
}

// Notifier receives lifecycle notifications after a transition commits.
type Notifier interface {
	SendDeliveryConfirmed(ctx context.Context, to emails.Recipient, requestTitle, transactionID string) error
	SendPaymentReleased(ctx context.Context, to emails.Recipient, requestTitle string, amount decimal.Decimal) error
	SendIssueReported(ctx context.Context, to emails.Recipient, requestTitle, issueDetails string) error
}

type Service struct {
	DB       *gorm.DB
	Payments PaymentReleaser
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

// step describes one transition: how it changes the details document and what it does
// inside the DB transaction once the status has been claimed.
type step struct {
	event     domain.TransactionEvent
	eventType string
	mutate    func(d *domain.TransactionDetails, now time.Time)
	effect    func(ctx context.Context, t *domain.Transaction, d *domain.TransactionDetails) error
	eventData map[string]interface{}
}

func (s *Service) MarkShipping(ctx context.Context, actor domain.Actor, txID uuid.UUID) (*domain.Transaction, error) {
	return s.apply(ctx, actor, txID, step{
		event:     domain.EventShip,
		eventType: domain.EventTransactionShipped,
	})
}

// MarkDelivered records the delivery photo reference and hands the purchase to the
// charity for review.
func (s *Service) MarkDelivered(ctx context.Context, actor domain.Actor, txID uuid.UUID, deliveryPhotoRef string) (*domain.Transaction, error) {
	ref := strings.TrimSpace(deliveryPhotoRef)
	if ref == "" {
		return nil, apperrors.Validation("delivery_photo_ref is required")
	}
	t, err := s.apply(ctx, actor, txID, step{
		event:     domain.EventDeliver,
		eventType: domain.EventTransactionDeliver,
		mutate: func(d *domain.TransactionDetails, now time.Time) {
			d.DeliveryPhotoRef = ref
			d.DeliveredAt = &now
		},
		eventData: map[string]interface{}{"delivery_photo_ref": ref},
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, t.CharityID, func(to emails.Recipient) error {
		return s.Notifier.SendDeliveryConfirmed(ctx, to, t.Description, t.ID.String())
	})
	return t, nil
}

// ReleasePayment completes the purchase. The payout is written while the status change is
// still uncommitted, so a failed payout leaves the transaction delivered.
func (s *Service) ReleasePayment(ctx context.Context, actor domain.Actor, txID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.apply(ctx, actor, txID, step{
		event:     domain.EventRelease,
		eventType: domain.EventPaymentReleased,
		effect: func(ctx context.Context, t *domain.Transaction, d *domain.TransactionDetails) error {
			if s.Payments == nil {
				return apperrors.New(apperrors.CodeDependency, "payment releaser is not configured")
			}
			receipt, err := s.Payments.ReleasePayment(ctx, ledger.PayoutEntry{
				TransactionID: t.ID,
				VendorID:      t.VendorID,
				CharityID:     t.CharityID,
				CampaignID:    t.CampaignID,
				Amount:        t.Amount,
			})
			if err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "payment release failed")
			}
			paidAt := receipt.RecordedAt
			if paidAt.IsZero() {
				paidAt = s.now()
			}
			d.PaymentReference = receipt.TxHash
			d.PaidAt = &paidAt
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, t.VendorID, func(to emails.Recipient) error {
		return s.Notifier.SendPaymentReleased(ctx, to, t.Description, t.Amount)
	})
	return t, nil
}

// ReportIssue rejects a delivered purchase and keeps the charity's explanation.
func (s *Service) ReportIssue(ctx context.Context, actor domain.Actor, txID uuid.UUID, issueDetails string) (*domain.Transaction, error) {
	issue := strings.TrimSpace(issueDetails)
	if issue == "" {
		return nil, apperrors.Validation("issue_details are required")
	}
	if len(issue) > maxIssueDetailsLength {
		return nil, apperrors.Validation("issue_details must be at most 2000 characters")
	}
	t, err := s.apply(ctx, actor, txID, step{
		event:     domain.EventReportIssue,
		eventType: domain.EventIssueReported,
		mutate: func(d *domain.TransactionDetails, now time.Time) {
			d.IssueDetails = issue
			d.IssueReportedAt = &now
		},
		eventData: map[string]interface{}{"issue_details": issue},
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, t.VendorID, func(to emails.Recipient) error {
		return s.Notifier.SendIssueReported(ctx, to, t.Description, issue)
	})
	return t, nil
}

func (s *Service) apply(ctx context.Context, actor domain.Actor, txID uuid.UUID, st step) (*domain.Transaction, error) {
	var t domain.Transaction
	var from domain.TransactionStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", txID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Transaction not found")
			}
			return err
		}
		if err := authorize(actor, &t, st.event); err != nil {
			return err
		}
		from = t.Status
		next, err := t.Status.Next(st.event)
		if err != nil {
			return apperrors.State(err.Error())
		}

		now := s.now()
		details, err := t.DecodeDetails()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("tx_id", t.ID.String()).Msg("refusing transition over unreadable details")
			return apperrors.Internal(err, "transaction details are unreadable")
		}
		if st.mutate != nil {
			st.mutate(&details, now)
		}

		res := tx.Model(&domain.Transaction{}).
			Where("id = ? AND status = ?", t.ID, from).
			Updates(map[string]interface{}{
				"status":     next,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Transaction was updated concurrently")
		}

		if st.effect != nil {
			if err := st.effect(ctx, &t, &details); err != nil {
				return err
			}
		}
		t.Status = next
		t.UpdatedAt = now
		t.Details = domain.EncodeDetails(details)
		if err := tx.Model(&domain.Transaction{}).Where("id = ?", t.ID).Update("details", t.Details).Error; err != nil {
			return err
		}

		data := map[string]interface{}{"from": from, "to": next}
		for k, v := range st.eventData {
			data[k] = v
		}
		if details.PaymentReference != "" && st.event == domain.EventRelease {
			data["payment_reference"] = details.PaymentReference
		}
		return marketevents.Append(tx, domain.AggregateTransaction, t.ID, st.eventType, actor, data)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition(t.Status.String())
	log.Ctx(ctx).Info().
		Str("tx_id", t.ID.String()).
		Str("actor_id", actor.ID.String()).
		Str("from", from.String()).
		Str("to", t.Status.String()).
		Msg("transaction transition")
	return &t, nil
}

func authorize(actor domain.Actor, t *domain.Transaction, event domain.TransactionEvent) error {
	switch event.RequiredRole() {
	case domain.RoleVendor:
		if !actor.Is(domain.RoleVendor) || t.VendorID != actor.ID {
			return apperrors.Forbidden("Only the vendor on this transaction can do that")
		}
	case domain.RoleCharity:
		if !actor.Is(domain.RoleCharity) || t.CharityID != actor.ID {
			return apperrors.Forbidden("Only the charity on this transaction can do that")
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, send func(to emails.Recipient) error) {
	if s.Notifier == nil {
		return
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("notification recipient lookup failed")
		return
	}
	if err := send(emails.Recipient{Email: u.Email, Name: u.DisplayName}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID.String()).Msg("failed to send transaction notification")
	}
}

// GetTransaction returns a transaction to the vendor or charity on it, or an admin.
func (s *Service) GetTransaction(ctx context.Context, actor domain.Actor, txID uuid.UUID) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.DB.WithContext(ctx).Where("id = ?", txID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Transaction not found")
		}
		return nil, err
	}
	if !actor.Is(domain.RoleAdmin) && t.VendorID != actor.ID && t.CharityID != actor.ID {
		return nil, apperrors.Forbidden("You are not a party to this transaction")
	}
	return &t, nil
}

func (s *Service) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.DB.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListForCharity returns the charity's expense records, optionally limited to one campaign.
func (s *Service) ListForCharity(ctx context.Context, charityID uuid.UUID, campaignID *uuid.UUID) ([]domain.Transaction, error) {
	q := s.DB.WithContext(ctx).Where("charity_id = ?", charityID)
	if campaignID != nil {
		q = q.Where("campaign_id = ?", *campaignID)
	}
	var out []domain.Transaction
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListForActor picks the vendor or charity listing based on the actor's role.
func (s *Service) ListForActor(ctx context.Context, actor domain.Actor, campaignID *uuid.UUID) ([]domain.Transaction, error) {
	switch actor.Role {
	case domain.RoleVendor:
		return s.ListForVendor(ctx, actor.ID)
	case domain.RoleCharity:
		return s.ListForCharity(ctx, actor.ID, campaignID)
	default:
		return nil, apperrors.Forbidden("Only charities and vendors have transactions")
	}
}
