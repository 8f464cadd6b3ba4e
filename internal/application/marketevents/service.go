package marketevents

import (
	"context"
	"encoding/json"

	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Append writes one audit event using tx, so it commits or rolls back with the change
// it describes.
func Append(tx *gorm.DB, aggregateType string, aggregateID uuid.UUID, eventType string, actor domain.Actor, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	event := domain.MarketEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		EventData:     datatypes.JSON(b),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		event.ActorID = &id
	}
	return tx.Create(&event).Error
}

type Service struct {
	DB *gorm.DB
}

// ListForAggregate returns the audit history of a request or transaction, oldest first.
// Admins see everything; charities and vendors only what they are a party to.
func (s *Service) ListForAggregate(ctx context.Context, actor domain.Actor, aggregateID uuid.UUID) ([]domain.MarketEvent, error) {
	if aggregateID == uuid.Nil {
		return nil, apperrors.Validation("aggregate_id is required")
	}
	db := s.DB.WithContext(ctx)

	var events []domain.MarketEvent
	if err := db.Where("aggregate_id = ?", aggregateID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.NotFound("No events found for this id")
	}
	if actor.Is(domain.RoleAdmin) {
		return events, nil
	}

	allowed, err := s.isParty(db, actor, events[0].AggregateType, aggregateID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.Forbidden("You are not a party to this record")
	}
	return events, nil
}

func (s *Service) isParty(db *gorm.DB, actor domain.Actor, aggregateType string, id uuid.UUID) (bool, error) {
	var count int64
	switch aggregateType {
	case domain.AggregateRequest:
		if actor.Is(domain.RoleCharity) {
			err := db.Model(&domain.Request{}).Where("id = ? AND created_by = ?", id, actor.ID).Count(&count).Error
			return count > 0, err
		}
		if actor.Is(domain.RoleVendor) {
			err := db.Model(&domain.Quotation{}).Where("request_id = ? AND vendor_id = ?", id, actor.ID).Count(&count).Error
			return count > 0, err
		}
	case domain.AggregateTransaction:
		err := db.Model(&domain.Transaction{}).
			Where("id = ? AND (charity_id = ? OR vendor_id = ?)", id, actor.ID, actor.ID).
			Count(&count).Error
		return count > 0, err
	}
	return false, nil
}
