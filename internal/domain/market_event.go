package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Aggregate types recorded in MarketEvent.AggregateType.
const (
	AggregateRequest     = "request"
	AggregateTransaction = "transaction"
)

// Event types recorded in MarketEvent.EventType.
const (
	EventRequestCreated     = "REQUEST_CREATED"
	EventRequestClosed      = "REQUEST_CLOSED"
	EventQuotationSubmitted = "QUOTATION_SUBMITTED"
	EventQuotationDeleted   = "QUOTATION_DELETED"
	EventQuotationAccepted  = "QUOTATION_ACCEPTED"
	EventTransactionCreated = "TRANSACTION_CREATED"
	EventTransactionShipped = "TRANSACTION_SHIPPING"
	EventTransactionDeliver = "TRANSACTION_DELIVERED"
	EventPaymentReleased    = "PAYMENT_RELEASED"
	EventIssueReported      = "ISSUE_REPORTED"
)

// MarketEvent is an append-only audit row written in the same DB transaction as the
// change it describes.
type MarketEvent struct {
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	AggregateType string         `gorm:"column:aggregate_type;type:varchar(20);not null" json:"aggregate_type"`
	AggregateID   uuid.UUID      `gorm:"column:aggregate_id;type:uuid;not null;index" json:"aggregate_id"`
	EventType     string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData     datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	ActorID       *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (MarketEvent) TableName() string {
	return "market_events"
}

func (e *MarketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
