package transactions

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	purchasesvc "givehub-backend/internal/application/purchases"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Handlers, *domain.User, *domain.User, domain.Transaction) {
	t.Helper()
	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	vendor := testutil.CreateUser(t, db, domain.RoleVendor, "Vendor")
	campaignID := uuid.New()
	txn := domain.Transaction{
		CampaignID: &campaignID, VendorID: vendor.UserID, VendorName: vendor.DisplayName,
		Amount: decimal.NewFromInt(300), Status: domain.TransactionStatusDelivered,
		QuotationID: uuid.New(), RequestID: uuid.New(), CharityID: charity.UserID,
	}
	require.NoError(t, db.Create(&txn).Error)
	return db, &Handlers{Service: &purchasesvc.Service{DB: db}}, charity, vendor, txn
}

func appAs(h *Handlers, u *domain.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", testutil.SessionUser(u))
		return c.Next()
	})
	app.Get("/transactions/mine", h.ListMine)
	app.Get("/transactions/:id", h.Get)
	app.Post("/transactions/:id/ship", h.Ship)
	app.Post("/transactions/:id/report-issue", h.ReportIssue)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestListMine_CampaignFilter(t *testing.T) {
	_, h, charity, _, txn := setup(t)
	app := appAs(h, charity)

	status, out := send(t, app, "GET", "/transactions/mine?campaign_id="+txn.CampaignID.String(), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)

	status, out = send(t, app, "GET", "/transactions/mine?campaign_id="+uuid.NewString(), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, out["data"])

	status, _ = send(t, app, "GET", "/transactions/mine?campaign_id=nope", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestReportIssue(t *testing.T) {
	db, h, charity, vendor, txn := setup(t)

	status, _ := send(t, appAs(h, vendor), "POST", "/transactions/"+txn.ID.String()+"/report-issue", map[string]string{"issue_details": "x"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = send(t, appAs(h, charity), "POST", "/transactions/"+txn.ID.String()+"/report-issue", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out := send(t, appAs(h, charity), "POST", "/transactions/"+txn.ID.String()+"/report-issue", map[string]string{"issue_details": "half the boxes were damaged"})
	require.Equal(t, fiber.StatusOK, status)
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, "rejected", data["status"])

	var got domain.Transaction
	require.NoError(t, db.Where("id = ?", txn.ID).First(&got).Error)
	assert.Equal(t, "half the boxes were damaged", decodedDetails(t, &got).IssueDetails)
}

func TestShip_WrongState(t *testing.T) {
	_, h, _, vendor, txn := setup(t)
	status, out := send(t, appAs(h, vendor), "POST", "/transactions/"+txn.ID.String()+"/ship", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "error", out["status"])
}

func TestGet_NotAParty(t *testing.T) {
	db, h, _, _, txn := setup(t)
	stranger := testutil.CreateUser(t, db, domain.RoleVendor, "Stranger")
	status, _ := send(t, appAs(h, stranger), "GET", "/transactions/"+txn.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func decodedDetails(t *testing.T, txn *domain.Transaction) domain.TransactionDetails {
	t.Helper()
	d, err := txn.DecodeDetails()
	require.NoError(t, err)
	return d
}
