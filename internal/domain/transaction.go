package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transaction is the purchase that results from an accepted quotation (the charity
// expense record). A nil CampaignID means the general fund paid for it.
type Transaction struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CampaignID  *uuid.UUID        `gorm:"column:campaign_id;type:uuid;index" json:"campaign_id"`
	VendorID    uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index" json:"vendor_id"`
	VendorName  string            `gorm:"column:vendor_name;not null" json:"vendor_name"`
	Amount      decimal.Decimal   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	Description string            `gorm:"column:description" json:"description"`
	Details     datatypes.JSON    `gorm:"column:details;type:jsonb" json:"details"`
	QuotationID uuid.UUID         `gorm:"column:quotation_id;type:uuid;not null;uniqueIndex" json:"quotation_id"`
	RequestID   uuid.UUID         `gorm:"column:request_id;type:uuid;not null;uniqueIndex" json:"request_id"`
	CharityID   uuid.UUID         `gorm:"column:charity_id;type:uuid;not null;index" json:"charity_id"`
	CreatedAt   time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// FundType is derived from CampaignID; transactions do not store it separately.
func (t *Transaction) FundType() FundType {
	return FundTypeFor(t.CampaignID)
}

// TransactionDetails is the JSON document kept in Transaction.Details.
type TransactionDetails struct {
	Items            []string   `json:"items,omitempty"`
	QuotationDetails string     `json:"quotation_details,omitempty"`
	AttachmentURL    *string    `json:"attachment_url,omitempty"`
	DeliveryPhotoRef string     `json:"delivery_photo_ref,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	IssueDetails     string     `json:"issue_details,omitempty"`
	IssueReportedAt  *time.Time `json:"issue_reported_at,omitempty"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// DecodeDetails reads the details column. An empty column yields zero values; a
// malformed one is an error so callers never overwrite it.
func (t *Transaction) DecodeDetails() (TransactionDetails, error) {
	var d TransactionDetails
	if len(t.Details) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(t.Details, &d); err != nil {
		return TransactionDetails{}, fmt.Errorf("transaction %s details: %w", t.ID, err)
	}
	return d, nil
}

// EncodeDetails serializes d for the details column.
func EncodeDetails(d TransactionDetails) datatypes.JSON {
	b, err := json.Marshal(d)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
