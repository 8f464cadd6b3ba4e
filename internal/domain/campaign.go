package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CampaignStatusActive = "active"
	CampaignStatusEnded  = "ended"
)

// Campaign is a fundraising drive owned by a charity. Campaign-funded requests and
// transactions point at one.
type Campaign struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CharityID   uuid.UUID       `gorm:"column:charity_id;type:uuid;not null;index" json:"charity_id"`
	Title       string          `gorm:"column:title;not null" json:"title"`
	Description string          `gorm:"column:description" json:"description"`
	GoalAmount  decimal.Decimal `gorm:"column:goal_amount;type:decimal(18,2);not null;default:0" json:"goal_amount"`
	Status      string          `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
