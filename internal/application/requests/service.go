package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"givehub-backend/internal/application/marketevents"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CampaignResolver confirms a campaign exists and belongs to the charity.
type CampaignResolver interface {
	ResolveCampaign(ctx context.Context, campaignID, charityID uuid.UUID) (*domain.Campaign, error)
}

type Service struct {
	DB              *gorm.DB
	Campaigns       CampaignResolver
	DefaultDeadline time.Duration
	Metrics         *metrics.Marketplace
	Now             func() time.Time
}

type CreateInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	FundType    string
	CampaignID  *uuid.UUID
}

// View is a Request plus the derived is_active flag, so clients never recompute expiry.
type View struct {
	domain.Request
	IsActive bool `json:"is_active"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ToView attaches is_active evaluated at the service clock.
func (s *Service) ToView(r domain.Request) View {
	return View{Request: r, IsActive: domain.IsOpenAndActive(&r, s.now())}
}

func (s *Service) toViews(rows []domain.Request) []View {
	out := make([]View, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.ToView(r))
	}
	return out
}

func (s *Service) CreateRequest(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Request, error) {
	if !actor.Is(domain.RoleCharity) {
		return nil, apperrors.Forbidden("Only charities can create requests")
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, apperrors.Validation("title and description are required")
	}
	fundType, err := domain.ParseFundType(in.FundType)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := domain.ValidateFundAttribution(fundType, in.CampaignID); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := s.now()
	deadline := in.Deadline
	if deadline == nil {
		d := now.Add(s.defaultDeadline())
		deadline = &d
	} else {
		if !deadline.After(now) {
			return nil, apperrors.Validation("deadline must be in the future")
		}
		d := deadline.UTC()
		deadline = &d
	}

	if fundType == domain.FundTypeCampaign {
		if s.Campaigns == nil {
			return nil, apperrors.New(apperrors.CodeDependency, "campaign lookup is not configured")
		}
		if _, err := s.Campaigns.ResolveCampaign(ctx, *in.CampaignID, actor.ID); err != nil {
			return nil, err
		}
	}

	req := domain.Request{
		Title:       title,
		Description: description,
		CreatedBy:   actor.ID,
		Status:      domain.RequestStatusOpen,
		Deadline:    deadline,
		FundType:    fundType,
		CampaignID:  in.CampaignID,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return marketevents.Append(tx, domain.AggregateRequest, req.ID, domain.EventRequestCreated, actor, map[string]interface{}{
			"title":       req.Title,
			"fund_type":   req.FundType,
			"campaign_id": req.CampaignID,
			"deadline":    req.Deadline,
		})
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.RequestCreated(string(fundType))
	log.Ctx(ctx).Info().Str("request_id", req.ID.String()).Str("actor_id", actor.ID.String()).Str("fund_type", string(fundType)).Msg("request created")
	return &req, nil
}

func (s *Service) defaultDeadline() time.Duration {
	if s.DefaultDeadline > 0 {
		return s.DefaultDeadline
	}
	return domain.DefaultDeadline
}

// ListRequestsForCharity returns every request the charity created, newest first.
func (s *Service) ListRequestsForCharity(ctx context.Context, charityID uuid.UUID) ([]View, error) {
	var rows []domain.Request
	if err := s.DB.WithContext(ctx).Where("created_by = ?", charityID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.toViews(rows), nil
}

// ListOpenRequests returns requests with status open. activeOnly additionally drops rows
// whose deadline has passed.
func (s *Service) ListOpenRequests(ctx context.Context, activeOnly bool) ([]View, error) {
	q := s.DB.WithContext(ctx).Where("status = ?", domain.RequestStatusOpen)
	if activeOnly {
		q = q.Where("deadline IS NULL OR deadline >= ?", s.now())
	}
	var rows []domain.Request
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.toViews(rows), nil
}

func (s *Service) GetRequestByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var req domain.Request
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}
	return &req, nil
}

// CloseRequest closes an open request. hasAcceptedQuotation=true is only legal when an
// accepted quotation already exists for it.
func (s *Service) CloseRequest(ctx context.Context, actor domain.Actor, id uuid.UUID, hasAcceptedQuotation bool) error {
	var fundType domain.FundType
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req domain.Request
		if err := tx.Where("id = ?", id).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Request not found")
			}
			return err
		}
		if req.CreatedBy != actor.ID {
			return apperrors.Forbidden("Only the owning charity can close this request")
		}
		if req.Status == domain.RequestStatusClosed {
			return apperrors.State("Request is already closed")
		}
		if hasAcceptedQuotation {
			var accepted int64
			if err := tx.Model(&domain.Quotation{}).Where("request_id = ? AND is_accepted = ?", id, true).Count(&accepted).Error; err != nil {
				return err
			}
			if accepted == 0 {
				return apperrors.State("Request has no accepted quotation")
			}
		}

		res := tx.Model(&domain.Request{}).
			Where("id = ? AND status = ?", id, domain.RequestStatusOpen).
			Updates(map[string]interface{}{
				"status":                 domain.RequestStatusClosed,
				"has_accepted_quotation": hasAcceptedQuotation,
				"updated_at":             s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Request was closed concurrently")
		}
		fundType = req.FundType
		return marketevents.Append(tx, domain.AggregateRequest, id, domain.EventRequestClosed, actor, map[string]interface{}{
			"has_accepted_quotation": hasAcceptedQuotation,
		})
	})
	if err != nil {
		return err
	}
	s.Metrics.RequestClosed(string(fundType))
	log.Ctx(ctx).Info().Str("request_id", id.String()).Str("actor_id", actor.ID.String()).Msg("request closed")
	return nil
}
