package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Donation mirrors a donation recorded on the ledger. Donor is the on-chain account
// that signed the record; DonorID is the platform's donor identifier.
type Donation struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Donor        string          `gorm:"column:donor;not null" json:"donor"`
	DonorID      string          `gorm:"column:donor_id;not null;index" json:"donorId"`
	RecipientID  string          `gorm:"column:recipient_id;not null;index" json:"recipientId"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Currency     string          `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	DonationType string          `gorm:"column:donation_type;type:varchar(30);not null" json:"donationType"`
	Metadata     datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
	TxHash       string          `gorm:"column:tx_hash;not null;uniqueIndex" json:"txHash"`
	Timestamp    time.Time       `gorm:"column:timestamp;not null;index" json:"timestamp"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"-"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
