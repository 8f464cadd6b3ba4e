package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const errorLogSize = 50

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, map[string]interface{}{})
	}
	return response.FromError(c, err)
}

// NewErrorHandler wraps ErrorHandler and keeps the last 5xx errors in Redis for the
// health dashboard (KeyErrorLog).
func NewErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		out := ErrorHandler(c, err)
		if rdb != nil && c.Response().StatusCode() >= fiber.StatusInternalServerError {
			RecordError(rdb, c, err)
		}
		return out
	}
}

// RecordError pushes one entry onto the capped error log.
func RecordError(rdb *redis.Client, c *fiber.Ctx, err error) {
	entry, _ := json.Marshal(map[string]interface{}{
		"time":     time.Now().UTC(),
		"method":   c.Method(),
		"path":     c.Path(),
		"message":  err.Error(),
		"trace_id": GetTraceID(c),
	})
	ctx := context.Background()
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, KeyErrorLog, entry)
	pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
	_, _ = pipe.Exec(ctx)
}
