package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a platform account. Charities and vendors are single-user organisations,
// so DisplayName doubles as the organisation name (denormalized into transactions).
type User struct {
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DisplayName  string         `gorm:"column:display_name;not null" json:"display_name"`
	Email        string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Role         Role           `gorm:"column:role;type:varchar(20);not null;default:'donor'" json:"role"`
	WalletAddr   *string        `gorm:"column:wallet_address" json:"wallet_address"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// Actor returns the identity used by marketplace operations.
func (u *User) Actor() Actor {
	return Actor{ID: u.UserID, Role: u.Role, Name: u.DisplayName, Email: u.Email}
}
