package campaigns

import (
	"context"
	"errors"
	"strings"

	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Title       string
	Description string
	GoalAmount  decimal.Decimal
}

func (s *Service) CreateCampaign(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Campaign, error) {
	if !actor.Is(domain.RoleCharity) {
		return nil, apperrors.Forbidden("Only charities can create campaigns")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if in.GoalAmount.IsNegative() {
		return nil, apperrors.Validation("goal_amount must not be negative")
	}
	campaign := domain.Campaign{
		CharityID:   actor.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		GoalAmount:  in.GoalAmount,
		Status:      domain.CampaignStatusActive,
	}
	if err := s.DB.WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("campaign_id", campaign.ID.String()).Str("actor_id", actor.ID.String()).Msg("campaign created")
	return &campaign, nil
}

func (s *Service) ListCampaignsForCharity(ctx context.Context, charityID uuid.UUID) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	err := s.DB.WithContext(ctx).Where("charity_id = ?", charityID).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// ResolveCampaign checks that campaignID names an active campaign owned by charityID.
func (s *Service) ResolveCampaign(ctx context.Context, campaignID, charityID uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := s.DB.WithContext(ctx).Where("id = ?", campaignID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("campaign_id does not reference an existing campaign")
		}
		return nil, err
	}
	if campaign.CharityID != charityID {
		return nil, apperrors.Forbidden("Campaign belongs to another charity")
	}
	if campaign.Status != domain.CampaignStatusActive {
		return nil, apperrors.State("Campaign has ended")
	}
	return &campaign, nil
}
