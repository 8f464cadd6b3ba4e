package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"givehub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFromError(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return FromError(c, err) })
	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return resp.StatusCode, out
}

func TestFromError_TypedErrors(t *testing.T) {
	status, out := runFromError(t, apperrors.State("request is closed"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "error", out["status"])
	e := out["error"].(map[string]interface{})
	assert.Equal(t, "request is closed", e["message"])
	assert.Equal(t, "STATE_ERROR", e["details"].(map[string]interface{})["code"])

	status, _ = runFromError(t, apperrors.Conflict("already accepted"))
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = runFromError(t, apperrors.Forbidden("not yours"))
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = runFromError(t, apperrors.NotFound("missing"))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestFromError_ValidationDetails(t *testing.T) {
	status, out := runFromError(t, apperrors.Validation("validation failed").WithDetails(map[string]string{"price": "is required"}))
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"price": "is required"}, details["fields"])
}

func TestFromError_UntypedIsInternal(t *testing.T) {
	status, out := runFromError(t, errors.New("connection reset"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", out["error"].(map[string]interface{})["message"])
}
