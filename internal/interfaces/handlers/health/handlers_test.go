package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	healthsvc "givehub-backend/internal/application/health"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthApp(t *testing.T, h *Handlers) *fiber.App {
	t.Helper()
	if h.Rdb == nil {
		h.Rdb, _ = testutil.NewRedis(t)
	}
	app := fiber.New()
	app.Get("/", h.Dashboard)
	app.Get("/reset", h.Reset)
	app.Get("/health", h.Liveness)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(b)
}

func TestLiveness(t *testing.T) {
	app := newHealthApp(t, &Handlers{})
	status, _, body := get(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestReset(t *testing.T) {
	h := &Handlers{HealthAdminKey: "admin-key"}
	app := newHealthApp(t, h)
	ctx := context.Background()
	require.NoError(t, h.Rdb.Set(ctx, middleware.KeyReqTotal, "41", 0).Err())

	for _, path := range []string{"/reset", "/reset?key=guess"} {
		status, _, body := get(t, app, path)
		assert.Equal(t, fiber.StatusForbidden, status, path)
		assert.Contains(t, body, `"message":"Unauthorized"`)
	}
	assert.Equal(t, "41", h.Rdb.Get(ctx, middleware.KeyReqTotal).Val())

	status, _, body := get(t, app, "/reset?key=admin-key")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Stats reset successfully")
	assert.Zero(t, h.Rdb.Exists(ctx, middleware.KeyReqTotal).Val())
	assert.NotEmpty(t, h.Rdb.Get(ctx, middleware.KeyStartTime).Val())
}

func TestJSON_ReportsProbesAndMarketplace(t *testing.T) {
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ledger.Close()

	db := testutil.NewDB(t)
	charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
	require.NoError(t, db.Create(&domain.Request{ID: uuid.New(), Title: "Blankets", Description: "d", CreatedBy: charity.UserID, Status: domain.RequestStatusOpen}).Error)

	app := newHealthApp(t, &Handlers{
		DB:     healthsvc.GormPinger{DB: db},
		Store:  db,
		Probes: []healthsvc.Probe{{Name: "ledger", URL: ledger.URL + "/health"}},
	})
	status, _, body := get(t, app, "/health/json")
	require.Equal(t, fiber.StatusOK, status)

	var out struct {
		Service      string                         `json:"service"`
		Status       string                         `json:"status"`
		Dependencies map[string]healthsvc.DepStatus `json:"dependencies"`
		Marketplace  *healthsvc.MarketplaceSnapshot `json:"marketplace"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "givehub-api", out.Service)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "reachable", out.Dependencies["ledger"].Status)
	assert.Equal(t, "connected", out.Dependencies["database"].Status)
	require.NotNil(t, out.Marketplace)
	assert.Equal(t, int64(1), out.Marketplace.OpenRequests)
}

func TestErrors(t *testing.T) {
	h := &Handlers{}
	app := newHealthApp(t, h)

	status, _, body := get(t, app, "/health/errors")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	ctx := context.Background()
	h.Rdb.LPush(ctx, middleware.KeyErrorLog, `{"path":"/donations","method":"POST","message":"ledger timeout"}`)
	h.Rdb.LPush(ctx, middleware.KeyErrorLog, `not json`)
	_, _, body = get(t, app, "/health/errors")
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger timeout", entries[0]["message"])
}

func TestDashboard(t *testing.T) {
	t.Run("with marketplace", func(t *testing.T) {
		db := testutil.NewDB(t)
		charity := testutil.CreateUser(t, db, domain.RoleCharity, "Shelter")
		require.NoError(t, db.Create(&domain.Request{ID: uuid.New(), Title: "Blankets", Description: "d", CreatedBy: charity.UserID, Status: domain.RequestStatusOpen}).Error)

		status, ctype, body := get(t, newHealthApp(t, &Handlers{Store: db}), "/")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "text/html; charset=utf-8", ctype)
		assert.Contains(t, body, "GiveHub API")
		assert.Contains(t, body, "<td>Open requests</td><td>1</td>")
		assert.Contains(t, body, "<td>redis</td>")
	})
	t.Run("without store", func(t *testing.T) {
		_, _, body := get(t, newHealthApp(t, &Handlers{}), "/")
		assert.NotContains(t, body, "Marketplace")
		assert.Contains(t, body, "/health/errors")
	})
}
