package donations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	donationsvc "givehub-backend/internal/application/donations"
	"givehub-backend/internal/infrastructure/ledger"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-donations-key"

type brokenLedger struct{}

func (brokenLedger) RecordDonation(ctx context.Context, entry ledger.DonationEntry) (*ledger.Receipt, error) {
	return nil, errors.New("node unreachable")
}

func newApp(t *testing.T, recorder donationsvc.Recorder) *fiber.App {
	t.Helper()
	h := &Handlers{Service: &donationsvc.Service{DB: testutil.NewDB(t), Ledger: recorder}}
	app := fiber.New()
	g := app.Group("/donations", middleware.RequireAPIKey(apiKey))
	g.Post("/", h.Record)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, key string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func donationBody() map[string]interface{} {
	return map[string]interface{}{
		"donorId":      "donor-42",
		"recipientId":  "charity-7",
		"amount":       50,
		"currency":     "USD",
		"donationType": "one-time",
		"metadata":     map[string]string{"note": "for winter coats"},
	}
}

func TestRecordAndFetch(t *testing.T) {
	app := newApp(t, ledger.NewLocalRecorder("0xgivehub"))

	status, raw := do(t, app, "POST", "/donations", donationBody(), apiKey)
	require.Equal(t, fiber.StatusCreated, status)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "Donation recorded successfully", created["message"])
	id, _ := created["donationId"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, created["txHash"])

	status, raw = do(t, app, "GET", "/donations/"+id, nil, apiKey)
	require.Equal(t, fiber.StatusOK, status)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "0xgivehub", got["donor"])
	assert.Equal(t, "donor-42", got["donorId"])
	assert.Equal(t, "charity-7", got["recipientId"])
	assert.Equal(t, "USD", got["currency"])
	assert.Equal(t, "one-time", got["donationType"])
	assert.Contains(t, got, "timestamp")
	meta, _ := got["metadata"].(map[string]interface{})
	assert.Equal(t, "for winter coats", meta["note"])

	status, raw = do(t, app, "GET", "/donations?count=5", nil, apiKey)
	require.Equal(t, fiber.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)
}

func TestRecord_Errors(t *testing.T) {
	app := newApp(t, ledger.NewLocalRecorder("acct"))

	status, raw := do(t, app, "POST", "/donations", donationBody(), "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, string(raw))

	body := donationBody()
	delete(body, "recipientId")
	status, raw = do(t, app, "POST", "/donations", body, apiKey)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, string(raw))

	body = donationBody()
	body["amount"] = -5
	status, _ = do(t, app, "POST", "/donations", body, apiKey)
	assert.Equal(t, fiber.StatusBadRequest, status)

	wide := map[string]interface{}{}
	for i := 0; i < 2000; i++ {
		wide["field"+strconv.Itoa(i)] = "some value that adds up"
	}
	body = donationBody()
	body["metadata"] = wide
	status, raw = do(t, app, "POST", "/donations", body, apiKey)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"metadata is too large"}`, string(raw))
}

func TestRecord_LedgerFailure(t *testing.T) {
	app := newApp(t, brokenLedger{})
	status, raw := do(t, app, "POST", "/donations", donationBody(), apiKey)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Failed to record donation"}`, string(raw))
}

func TestGet_UnknownAndInvalid(t *testing.T) {
	app := newApp(t, ledger.NewLocalRecorder("acct"))

	status, _ := do(t, app, "GET", "/donations/"+uuid.NewString(), nil, apiKey)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/donations/not-a-uuid", nil, apiKey)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
