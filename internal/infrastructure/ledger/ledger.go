package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DonationEntry is what gets written on-chain for a donation.
type DonationEntry struct {
	DonationID   uuid.UUID       `json:"donationId"`
	DonorID      string          `json:"donorId"`
	RecipientID  string          `json:"recipientId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	DonationType string          `json:"donationType"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// PayoutEntry releases escrowed funds to a vendor for a completed transaction.
type PayoutEntry struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	VendorID      uuid.UUID       `json:"vendorId"`
	CharityID     uuid.UUID       `json:"charityId"`
	CampaignID    *uuid.UUID      `json:"campaignId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// Receipt identifies a ledger write.
type Receipt struct {
	TxHash     string    `json:"txHash"`
	Account    string    `json:"account"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Recorder is the blockchain boundary. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordDonation(ctx context.Context, entry DonationEntry) (*Receipt, error)
	ReleasePayment(ctx context.Context, entry PayoutEntry) (*Receipt, error)
}
