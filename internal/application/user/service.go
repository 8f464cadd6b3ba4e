package user

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"givehub-backend/internal/application/emails"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/constants"
	"givehub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const userSessionsPrefix = "user_sessions:"

// WelcomeSender greets newly registered accounts.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to emails.Recipient) error
}

// Service holds DB and Redis for user operations.
type Service struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Emails WelcomeSender
}

type RegisterInput struct {
	DisplayName string `json:"display_name" validate:"required,display_name"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	Role        string `json:"role" validate:"omitempty,oneof=donor charity vendor"`
}

// Register creates a donor, charity or vendor account. Admins are never self-service.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, apperrors.Validation("Invalid email format")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, apperrors.Validation("Invalid password format")
	}
	name := normalizeSpaces(in.DisplayName)
	if !validation.IsValidDisplayName(name) {
		return nil, apperrors.Validation("Display name is required and may only contain letters, numbers, spaces and - ' & . ,")
	}
	role := in.Role
	if role == "" {
		role = constants.Donor
	}
	if !constants.IsSelfServiceRole(role) {
		return nil, apperrors.Validation("Role must be one of donor, charity or vendor")
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperrors.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		DisplayName:  name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.Role(role),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Email already registered")
		}
		return nil, err
	}
	log.Info().Str("user_id", u.UserID.String()).Str("role", role).Msg("user registered")

	if s.Emails != nil {
		if err := s.Emails.SendWelcome(ctx, emails.Recipient{Email: u.Email, Name: u.DisplayName}); err != nil {
			log.Error().Err(err).Str("user_id", u.UserID.String()).Msg("failed to send welcome email")
		}
	}
	return u, nil
}

// ViewUser returns a user by ID.
func (s *Service) ViewUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

type UpdateInput struct {
	DisplayName   *string `json:"display_name"`
	Email         *string `json:"email"`
	Password      *string `json:"password"`
	WalletAddress *string `json:"wallet_address"`
}

// UpdateUser changes the caller's own profile. A password change signs out every other
// session of the user.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, in UpdateInput) (*domain.User, error) {
	upd := map[string]interface{}{}
	if in.DisplayName != nil {
		name := normalizeSpaces(*in.DisplayName)
		if !validation.IsValidDisplayName(name) {
			return nil, apperrors.Validation("Display name contains invalid characters")
		}
		upd["display_name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if !validation.IsValidEmail(email) {
			return nil, apperrors.Validation("Invalid email format")
		}
		var dup int64
		if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ? AND user_id <> ?", email, userID).Count(&dup).Error; err != nil {
			return nil, err
		}
		if dup > 0 {
			return nil, apperrors.Conflict("Email already registered")
		}
		upd["email"] = email
	}
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, apperrors.Validation("Invalid password format")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), 10)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
	}
	if in.WalletAddress != nil {
		addr := strings.TrimSpace(*in.WalletAddress)
		if addr == "" {
			upd["wallet_address"] = nil
		} else {
			upd["wallet_address"] = addr
		}
	}
	if len(upd) == 0 {
		return nil, apperrors.Validation("No valid update fields provided")
	}

	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Email already registered")
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("User not found")
	}
	if _, ok := upd["password_hash"]; ok {
		s.DestroyUserSessions(ctx, userID.String())
	}
	return s.ViewUser(ctx, userID)
}

// DestroyUserSessions deletes every session indexed under user_sessions:<id>.
func (s *Service) DestroyUserSessions(ctx context.Context, userID string) {
	if s.Rdb == nil {
		return
	}
	key := userSessionsPrefix + userID
	ids, err := s.Rdb.SMembers(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("could not list user sessions")
		return
	}
	pipe := s.Rdb.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, "session:"+id)
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("could not destroy user sessions")
	}
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
