package testutil

import (
	"testing"

	"givehub-backend/internal/domain"
	"givehub-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an in-memory SQLite database with the full schema migrated.
// A single connection keeps every query on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// CreateUser inserts a user with the given role and password "password123!".
func CreateUser(t *testing.T, db *gorm.DB, role domain.Role, name string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		UserID:       uuid.New(),
		DisplayName:  name,
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SessionUser builds the Locals("user") value the session middleware would set for u.
func SessionUser(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"user_id":      u.UserID.String(),
		"display_name": u.DisplayName,
		"email":        u.Email,
		"role":         string(u.Role),
	}
}
