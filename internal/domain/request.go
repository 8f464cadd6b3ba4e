package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDeadline is applied when a request is created without one.
const DefaultDeadline = 30 * 24 * time.Hour

// Request is a charity's call for goods or services that vendors bid on.
type Request struct {
	ID                   uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title                string        `gorm:"column:title;not null" json:"title"`
	Description          string        `gorm:"column:description;not null" json:"description"`
	CreatedBy            uuid.UUID     `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
	Status               RequestStatus `gorm:"column:status;type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt            time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"column:updated_at" json:"updated_at"`
	Deadline             *time.Time    `gorm:"column:deadline" json:"deadline"`
	QuotationCount       int           `gorm:"column:quotation_count;not null;default:0" json:"quotation_count"`
	HasAcceptedQuotation bool          `gorm:"column:has_accepted_quotation;not null;default:false" json:"has_accepted_quotation"`
	FundType             FundType      `gorm:"column:fund_type;type:varchar(20);not null;default:'general'" json:"fund_type"`
	CampaignID           *uuid.UUID    `gorm:"column:campaign_id;type:uuid" json:"campaign_id"`
}

func (Request) TableName() string {
	return "requests"
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsOpenAndActive reports whether vendors may still bid on the request at now.
// Server-side validation and API payloads both use it so they never disagree.
func IsOpenAndActive(r *Request, now time.Time) bool {
	if r == nil || r.Status != RequestStatusOpen {
		return false
	}
	return r.Deadline == nil || !now.After(*r.Deadline)
}
