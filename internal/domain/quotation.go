package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quotation is a vendor's priced bid against a Request. A vendor holds at most one
// quotation per request (ux_quotations_request_vendor).
type Quotation struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestID     uuid.UUID       `gorm:"column:request_id;type:uuid;not null;uniqueIndex:ux_quotations_request_vendor,priority:1" json:"request_id"`
	VendorID      uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_quotations_request_vendor,priority:2" json:"vendor_id"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Details       string          `gorm:"column:details;not null" json:"details"`
	AttachmentURL *string         `gorm:"column:attachment_url" json:"attachment_url"`
	IsAccepted    bool            `gorm:"column:is_accepted;not null;default:false" json:"is_accepted"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Quotation) TableName() string {
	return "quotations"
}

func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
