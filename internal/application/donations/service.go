package donations

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"givehub-backend/internal/domain"
	"givehub-backend/internal/infrastructure/ledger"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"
	"givehub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultListCount = 10
	MaxListCount     = 100
)

// Recorder writes donations to the ledger.
type Recorder interface {
	RecordDonation(ctx context.Context, entry ledger.DonationEntry) (*ledger.Receipt, error)
}

type Service struct {
	DB      *gorm.DB
	Ledger  Recorder
	Metrics *metrics.Marketplace
	Now     func() time.Time
}

type RecordInput struct {
	DonorID      string
	RecipientID  string
	Amount       decimal.Decimal
	Currency     string
	DonationType string
	Metadata     any
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Record writes the donation to the ledger first and then mirrors it locally. A ledger
// failure leaves nothing stored.
func (s *Service) Record(ctx context.Context, in RecordInput) (*domain.Donation, error) {
	donorID := validation.SanitizeString(in.DonorID, validation.MaxMetadataFieldLength)
	recipientID := validation.SanitizeString(in.RecipientID, validation.MaxMetadataFieldLength)
	currency := strings.ToUpper(validation.SanitizeString(in.Currency, 10))
	donationType := validation.SanitizeString(in.DonationType, 30)
	if donorID == "" || recipientID == "" || currency == "" || donationType == "" {
		return nil, apperrors.Validation("Missing required fields")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("Amount must be greater than zero")
	}

	var metadata json.RawMessage
	if clean := validation.SanitizeMetadata(in.Metadata); clean != nil {
		b, err := json.Marshal(clean)
		if err != nil {
			return nil, apperrors.Validation("metadata is not valid JSON")
		}
		if len(b) > validation.MaxMetadataBytes {
			return nil, apperrors.Validation("metadata is too large")
		}
		metadata = b
	}

	d := domain.Donation{
		ID:           uuid.New(),
		DonorID:      donorID,
		RecipientID:  recipientID,
		Amount:       in.Amount.Round(2),
		Currency:     currency,
		DonationType: donationType,
		Timestamp:    s.now(),
	}
	if len(metadata) > 0 {
		d.Metadata = datatypes.JSON(metadata)
	}

	if s.Ledger == nil {
		s.Metrics.Donation("failed")
		return nil, apperrors.New(apperrors.CodeDependency, "ledger is not configured")
	}
	receipt, err := s.Ledger.RecordDonation(ctx, ledger.DonationEntry{
		DonationID:   d.ID,
		DonorID:      d.DonorID,
		RecipientID:  d.RecipientID,
		Amount:       d.Amount,
		Currency:     d.Currency,
		DonationType: d.DonationType,
		Metadata:     metadata,
		Timestamp:    d.Timestamp,
	})
	if err != nil {
		s.Metrics.Donation("failed")
		log.Ctx(ctx).Error().Err(err).Str("donation_id", d.ID.String()).Msg("ledger rejected donation")
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "failed to record donation on ledger")
	}
	d.TxHash = receipt.TxHash
	d.Donor = receipt.Account

	if err := s.DB.WithContext(ctx).Create(&d).Error; err != nil {
		s.Metrics.Donation("failed")
		log.Ctx(ctx).Error().Err(err).Str("donation_id", d.ID.String()).Str("tx_hash", d.TxHash).Msg("donation recorded on ledger but not stored")
		return nil, err
	}
	s.Metrics.Donation("recorded")
	log.Ctx(ctx).Info().
		Str("donation_id", d.ID.String()).
		Str("tx_hash", d.TxHash).
		Str("donor_id", d.DonorID).
		Str("recipient_id", d.RecipientID).
		Msg("donation recorded")
	return &d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Donation, error) {
	var d domain.Donation
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Donation not found")
		}
		return nil, err
	}
	return &d, nil
}

// List returns the latest count donations. Out of range counts fall back to the default
// or are capped at MaxListCount.
func (s *Service) List(ctx context.Context, count int) ([]domain.Donation, error) {
	if count <= 0 {
		count = DefaultListCount
	}
	if count > MaxListCount {
		count = MaxListCount
	}
	var out []domain.Donation
	err := s.DB.WithContext(ctx).Order("timestamp DESC").Limit(count).Find(&out).Error
	return out, err
}
