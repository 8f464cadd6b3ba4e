package requests

import (
	"context"
	"testing"
	"time"

	"givehub-backend/internal/application/campaigns"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(db *gorm.DB) *Service {
	return &Service{
		DB:        db,
		Campaigns: &campaigns.Service{DB: db},
		Now:       func() time.Time { return fixedNow },
	}
}

func countEvents(t *testing.T, db *gorm.DB, id uuid.UUID, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.MarketEvent{}).Where("aggregate_id = ? AND event_type = ?", id, eventType).Count(&n).Error)
	return n
}

func TestCreateRequest_DefaultsToGeneralFundAndThirtyDays(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	svc := newService(db)

	req, err := svc.CreateRequest(context.Background(), charity.Actor(), CreateInput{Title: "  Blankets ", Description: "200 wool blankets"})
	require.NoError(t, err)
	assert.Equal(t, "Blankets", req.Title)
	assert.Equal(t, domain.RequestStatusOpen, req.Status)
	assert.Equal(t, domain.FundTypeGeneral, req.FundType)
	assert.Nil(t, req.CampaignID)
	assert.Equal(t, 0, req.QuotationCount)
	assert.False(t, req.HasAcceptedQuotation)
	require.NotNil(t, req.Deadline)
	assert.True(t, req.Deadline.Equal(fixedNow.Add(30*24*time.Hour)))
	assert.Equal(t, int64(1), countEvents(t, db, req.ID, domain.EventRequestCreated))
}

func TestCreateRequest_ConfiguredDeadline(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	svc := newService(db)
	svc.DefaultDeadline = 7 * 24 * time.Hour

	req, err := svc.CreateRequest(context.Background(), charity.Actor(), CreateInput{Title: "Soap", Description: "bars"})
	require.NoError(t, err)
	assert.True(t, req.Deadline.Equal(fixedNow.Add(7*24*time.Hour)))
}

func TestCreateRequest_CampaignFund(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	other := testutil.CreateUser(t, db, domain.RoleCharity, "Other")
	cs := &campaigns.Service{DB: db}
	campaign, err := cs.CreateCampaign(context.Background(), charity.Actor(), campaigns.CreateInput{Title: "Winter drive", GoalAmount: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	svc := newService(db)

	req, err := svc.CreateRequest(context.Background(), charity.Actor(), CreateInput{
		Title: "Coats", Description: "kids coats", FundType: "campaign", CampaignID: &campaign.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FundTypeCampaign, req.FundType)
	require.NotNil(t, req.CampaignID)
	assert.Equal(t, campaign.ID, *req.CampaignID)

	_, err = svc.CreateRequest(context.Background(), other.Actor(), CreateInput{
		Title: "Coats", Description: "kids coats", FundType: "campaign", CampaignID: &campaign.ID,
	})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	unknown := uuid.New()
	_, err = svc.CreateRequest(context.Background(), charity.Actor(), CreateInput{
		Title: "Coats", Description: "kids coats", FundType: "campaign", CampaignID: &unknown,
	})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestCreateRequest_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	vendor := testutil.CreateUser(t, db, domain.RoleVendor, "Vendor")
	svc := newService(db)
	past := fixedNow.Add(-time.Hour)
	cid := uuid.New()

	cases := []struct {
		name  string
		actor domain.Actor
		in    CreateInput
		code  apperrors.Code
	}{
		{"vendor", vendor.Actor(), CreateInput{Title: "a", Description: "b"}, apperrors.CodeForbidden},
		{"missing title", charity.Actor(), CreateInput{Title: " ", Description: "b"}, apperrors.CodeValidation},
		{"past deadline", charity.Actor(), CreateInput{Title: "a", Description: "b", Deadline: &past}, apperrors.CodeValidation},
		{"campaign without id", charity.Actor(), CreateInput{Title: "a", Description: "b", FundType: "campaign"}, apperrors.CodeValidation},
		{"general with id", charity.Actor(), CreateInput{Title: "a", Description: "b", FundType: "general", CampaignID: &cid}, apperrors.CodeValidation},
		{"unknown fund type", charity.Actor(), CreateInput{Title: "a", Description: "b", FundType: "endowment"}, apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRequest(context.Background(), tc.actor, tc.in)
			assert.Equal(t, tc.code, apperrors.CodeOf(err))
		})
	}
	var n int64
	require.NoError(t, db.Model(&domain.Request{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListOpenRequests_ActiveFilter(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	svc := newService(db)

	future := fixedNow.Add(48 * time.Hour)
	expired := fixedNow.Add(-48 * time.Hour)
	open := domain.Request{Title: "open", Description: "d", CreatedBy: charity.UserID, Status: domain.RequestStatusOpen, Deadline: &future, FundType: domain.FundTypeGeneral}
	stale := domain.Request{Title: "stale", Description: "d", CreatedBy: charity.UserID, Status: domain.RequestStatusOpen, Deadline: &expired, FundType: domain.FundTypeGeneral}
	closed := domain.Request{Title: "closed", Description: "d", CreatedBy: charity.UserID, Status: domain.RequestStatusClosed, Deadline: &future, FundType: domain.FundTypeGeneral}
	require.NoError(t, db.Create(&open).Error)
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&closed).Error)

	all, err := svc.ListOpenRequests(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, v := range all {
		assert.Equal(t, v.ID == open.ID, v.IsActive)
	}

	active, err := svc.ListOpenRequests(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	mine, err := svc.ListRequestsForCharity(context.Background(), charity.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestGetRequestByID_NotFound(t *testing.T) {
	svc := newService(testutil.NewDB(t))
	_, err := svc.GetRequestByID(context.Background(), uuid.New())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestCloseRequest(t *testing.T) {
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	other := testutil.CreateUser(t, db, domain.RoleCharity, "Other")
	svc := newService(db)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, charity.Actor(), CreateInput{Title: "Tents", Description: "10 tents"})
	require.NoError(t, err)

	err = svc.CloseRequest(ctx, other.Actor(), req.ID, false)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	err = svc.CloseRequest(ctx, charity.Actor(), req.ID, true)
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err), "no accepted quotation exists")

	require.NoError(t, svc.CloseRequest(ctx, charity.Actor(), req.ID, false))
	got, err := svc.GetRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusClosed, got.Status)
	assert.False(t, got.HasAcceptedQuotation)
	assert.Equal(t, int64(1), countEvents(t, db, req.ID, domain.EventRequestClosed))

	err = svc.CloseRequest(ctx, charity.Actor(), req.ID, false)
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))

	err = svc.CloseRequest(ctx, charity.Actor(), uuid.New(), false)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
