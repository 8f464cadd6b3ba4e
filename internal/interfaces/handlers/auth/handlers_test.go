package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "givehub-backend/internal/application/auth"
	"givehub-backend/internal/domain"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	app *fiber.App
	db  *gorm.DB
	rdb *redis.Client
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	cfg := middleware.SessionConfig{}
	h := &Handlers{UserFinder: &authsvc.GormUserFinder{DB: db}, Rdb: rdb, Config: cfg}

	app := fiber.New()
	app.Use(middleware.Session(cfg, rdb))
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	return &authFixture{app: app, db: db, rdb: rdb}
}

func (f *authFixture) do(t *testing.T, method, path string, body interface{}, cookie string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func TestLogin_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	vendor := testutil.CreateUser(t, f.db, domain.RoleVendor, "Supplies Co")

	cases := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"no body", nil, fiber.StatusBadRequest},
		{"missing password", map[string]string{"email": vendor.Email}, fiber.StatusBadRequest},
		{"malformed email", map[string]string{"email": "not-an-email", "password": "x"}, fiber.StatusBadRequest},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password123!"}, fiber.StatusUnauthorized},
		{"wrong password", map[string]string{"email": vendor.Email, "password": "wrong"}, fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := f.do(t, "POST", "/login", tc.body, "")
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "error", out["status"])
			assert.Empty(t, sessionCookie(resp))
		})
	}

	// unknown account and bad password are indistinguishable to the caller
	_, unknown := f.do(t, "POST", "/login", map[string]string{"email": "nobody@example.com", "password": "password123!"}, "")
	_, wrong := f.do(t, "POST", "/login", map[string]string{"email": vendor.Email, "password": "wrong"}, "")
	assert.Equal(t, unknown["error"], wrong["error"])
}

func TestLogin_NoUserFinder(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	h := &Handlers{Rdb: rdb}
	app := fiber.New()
	app.Post("/login", h.Login)

	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(`{"email":"a@b.com","password":"p"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestSessionRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	charity := testutil.CreateUser(t, f.db, domain.RoleCharity, "Shelter")
	ctx := context.Background()

	resp, out := f.do(t, "POST", "/login", map[string]string{"email": charity.Email, "password": "password123!"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", out["message"])
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, charity.UserID.String(), user["user_id"])
	assert.Equal(t, "charity", user["role"])

	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)
	sessionID := cookie[len("s:"):]
	members, err := f.rdb.SMembers(ctx, userSessionsPrefix+charity.UserID.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{sessionID}, members)
	assert.Equal(t, int64(1), f.rdb.Exists(ctx, middleware.SessionRedisPrefix+sessionID).Val())

	resp, out = f.do(t, "GET", "/me", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, charity.Email, me["email"])
	assert.Equal(t, "Shelter", me["display_name"])

	resp, _ = f.do(t, "DELETE", "/logout", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, f.rdb.Exists(ctx, middleware.SessionRedisPrefix+sessionID).Val())
	assert.Zero(t, f.rdb.SCard(ctx, userSessionsPrefix+charity.UserID.String()).Val())

	resp, _ = f.do(t, "GET", "/me", nil, cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_Anonymous(t *testing.T) {
	f := newAuthFixture(t)
	resp, out := f.do(t, "GET", "/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", out["error"].(map[string]interface{})["message"])
}

func TestLogout_AnonymousStillClearsCookie(t *testing.T) {
	f := newAuthFixture(t)
	resp, _ := f.do(t, "DELETE", "/logout", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))
}
