package purchases

import (
	"context"
	"errors"
	"testing"
	"time"

	"givehub-backend/internal/application/emails"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/infrastructure/ledger"
	"givehub-backend/internal/pkg/apperrors"
	"givehub-backend/internal/pkg/metrics"
	"givehub-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakePayments struct {
	err     error
	entries []ledger.PayoutEntry
}

func (f *fakePayments) ReleasePayment(ctx context.Context, entry ledger.PayoutEntry) (*ledger.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, entry)
	return &ledger.Receipt{TxHash: "0xabc", Account: "escrow", RecordedAt: time.Now().UTC()}, nil
}

type fakeNotifier struct {
	delivered []string
	released  []string
	issues    []string
}

func (n *fakeNotifier) SendDeliveryConfirmed(ctx context.Context, to emails.Recipient, requestTitle, transactionID string) error {
	n.delivered = append(n.delivered, to.Email)
	return nil
}

func (n *fakeNotifier) SendPaymentReleased(ctx context.Context, to emails.Recipient, requestTitle string, amount decimal.Decimal) error {
	n.released = append(n.released, to.Email)
	return nil
}

func (n *fakeNotifier) SendIssueReported(ctx context.Context, to emails.Recipient, requestTitle, issueDetails string) error {
	n.issues = append(n.issues, issueDetails)
	return nil
}

type fixture struct {
	db      *gorm.DB
	charity *domain.User
	vendor  *domain.User
	txn     domain.Transaction
}

func newFixture(t *testing.T, status domain.TransactionStatus, campaignID *uuid.UUID) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := fixture{
		db:      db,
		charity: testutil.CreateUser(t, db, domain.RoleCharity, "Shelter"),
		vendor:  testutil.CreateUser(t, db, domain.RoleVendor, "Blanket Co"),
	}
	f.txn = domain.Transaction{
		CampaignID:  campaignID,
		VendorID:    f.vendor.UserID,
		VendorName:  f.vendor.DisplayName,
		Amount:      decimal.RequireFromString("250.00"),
		Status:      status,
		Description: "Blankets",
		Details:     domain.EncodeDetails(domain.TransactionDetails{Items: []string{"Blankets"}}),
		QuotationID: uuid.New(),
		RequestID:   uuid.New(),
		CharityID:   f.charity.UserID,
	}
	require.NoError(t, db.Create(&f.txn).Error)
	return f
}

func TestHappyPathToCompleted(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusPending, nil)
	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	reg := prometheus.NewRegistry()
	m := metrics.NewMarketplace(reg)
	svc := &Service{DB: f.db, Payments: payments, Notifier: notifier, Metrics: m}
	ctx := context.Background()

	txn, err := svc.MarkShipping(ctx, f.vendor.Actor(), f.txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusShipping, txn.Status)

	txn, err = svc.MarkDelivered(ctx, f.vendor.Actor(), f.txn.ID, "deliveries/photo-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusDelivered, txn.Status)
	assert.Equal(t, "deliveries/photo-1.jpg", decodedDetails(t, txn).DeliveryPhotoRef)
	assert.Equal(t, []string{f.charity.Email}, notifier.delivered)

	txn, err = svc.ReleasePayment(ctx, f.charity.Actor(), f.txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "0xabc", decodedDetails(t, txn).PaymentReference)
	require.Len(t, payments.entries, 1)
	assert.True(t, payments.entries[0].Amount.Equal(decimal.RequireFromString("250")))
	assert.Equal(t, []string{f.vendor.Email}, notifier.released)

	var stored domain.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", f.txn.ID).Error)
	assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
	details := decodedDetails(t, &stored)
	assert.Equal(t, []string{"Blankets"}, details.Items)
	assert.Equal(t, "deliveries/photo-1.jpg", details.DeliveryPhotoRef)
	assert.NotNil(t, details.PaidAt)

	var events int64
	require.NoError(t, f.db.Model(&domain.MarketEvent{}).Where("aggregate_id = ?", f.txn.ID).Count(&events).Error)
	assert.Equal(t, int64(3), events)

	series, err := promtest.GatherAndCount(reg, "givehub_transaction_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestReportIssueRejects(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusDelivered, nil)
	notifier := &fakeNotifier{}
	svc := &Service{DB: f.db, Notifier: notifier}

	txn, err := svc.ReportIssue(context.Background(), f.charity.Actor(), f.txn.ID, "  3 blankets torn  ")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, txn.Status)
	assert.Equal(t, "3 blankets torn", decodedDetails(t, txn).IssueDetails)
	assert.Equal(t, []string{"3 blankets torn"}, notifier.issues)

	_, err = svc.ReleasePayment(context.Background(), f.charity.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))
}

func TestIllegalTransitionsAreStateErrors(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusPending, nil)
	svc := &Service{DB: f.db, Payments: &fakePayments{}}
	ctx := context.Background()

	_, err := svc.MarkDelivered(ctx, f.vendor.Actor(), f.txn.ID, "photo.jpg")
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))

	_, err = svc.ReleasePayment(ctx, f.charity.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))

	_, err = svc.ReportIssue(ctx, f.charity.Actor(), f.txn.ID, "late")
	assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))

	var stored domain.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", f.txn.ID).Error)
	assert.Equal(t, domain.TransactionStatusPending, stored.Status)
}

func TestDeliveryRequiresPhoto(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusShipping, nil)
	svc := &Service{DB: f.db}

	_, err := svc.MarkDelivered(context.Background(), f.vendor.Actor(), f.txn.ID, "   ")
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestTransitionsAreActorGated(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusPending, nil)
	svc := &Service{DB: f.db}
	otherVendor := testutil.CreateUser(t, f.db, domain.RoleVendor, "Other")

	_, err := svc.MarkShipping(context.Background(), f.charity.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = svc.MarkShipping(context.Background(), otherVendor.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = svc.MarkShipping(context.Background(), f.vendor.Actor(), uuid.New())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestFailedPayoutKeepsDelivered(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusDelivered, nil)
	svc := &Service{DB: f.db, Payments: &fakePayments{err: errors.New("gateway down")}}

	_, err := svc.ReleasePayment(context.Background(), f.charity.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeDependency, apperrors.CodeOf(err))

	var stored domain.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", f.txn.ID).Error)
	assert.Equal(t, domain.TransactionStatusDelivered, stored.Status)

	var events int64
	require.NoError(t, f.db.Model(&domain.MarketEvent{}).Where("aggregate_id = ?", f.txn.ID).Count(&events).Error)
	assert.Zero(t, events)
}

func TestUnreadableDetailsAbortTransition(t *testing.T) {
	f := newFixture(t, domain.TransactionStatusPending, nil)
	require.NoError(t, f.db.Model(&domain.Transaction{}).Where("id = ?", f.txn.ID).
		Update("details", datatypes.JSON(`{"items": "not-a-list"}`)).Error)
	svc := &Service{DB: f.db}

	_, err := svc.MarkShipping(context.Background(), f.vendor.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))

	var stored domain.Transaction
	require.NoError(t, f.db.First(&stored, "id = ?", f.txn.ID).Error)
	assert.Equal(t, domain.TransactionStatusPending, stored.Status)
	assert.JSONEq(t, `{"items": "not-a-list"}`, string(stored.Details))
}

func TestListAndGet(t *testing.T) {
	campaignID := uuid.New()
	f := newFixture(t, domain.TransactionStatusPending, &campaignID)
	general := f.txn
	general.ID = uuid.Nil
	general.CampaignID = nil
	general.QuotationID = uuid.New()
	general.RequestID = uuid.New()
	require.NoError(t, f.db.Create(&general).Error)
	svc := &Service{DB: f.db}
	ctx := context.Background()

	all, err := svc.ListForActor(ctx, f.charity.Actor(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.ListForCharity(ctx, f.charity.UserID, &campaignID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.FundTypeCampaign, filtered[0].FundType())

	vendorRows, err := svc.ListForActor(ctx, f.vendor.Actor(), nil)
	require.NoError(t, err)
	assert.Len(t, vendorRows, 2)

	donor := testutil.CreateUser(t, f.db, domain.RoleDonor, "Donor")
	_, err = svc.ListForActor(ctx, donor.Actor(), nil)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = svc.GetTransaction(ctx, donor.Actor(), f.txn.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	got, err := svc.GetTransaction(ctx, f.vendor.Actor(), f.txn.ID)
	require.NoError(t, err)
	assert.Equal(t, f.txn.ID, got.ID)
}

func decodedDetails(t *testing.T, txn *domain.Transaction) domain.TransactionDetails {
	t.Helper()
	d, err := txn.DecodeDetails()
	require.NoError(t, err)
	return d
}
