package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis keys read by the health dashboard and cleared by /reset.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

func untracked(path string) bool {
	return path == "/" || path == "/reset" || path == "/metrics" ||
		strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon")
}

// HealthMarker counts API traffic in Redis. Counters are flushed in one pipeline after
// the response so a slow Redis never delays the request path twice.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || untracked(c.Path()) {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		last, _ := json.Marshal(map[string]interface{}{
			"time":   start.UTC(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
			"status": c.Response().StatusCode(),
		})
		ctx := context.Background()
		pipe := rdb.Pipeline()
		pipe.SetNX(ctx, KeyStartTime, start.UnixMilli(), 0)
		pipe.Set(ctx, KeyLastReq, last, 0)
		pipe.Incr(ctx, KeyReqTotal)
		pipe.Incr(ctx, KeyResCount)
		pipe.IncrByFloat(ctx, KeyResTime, float64(time.Since(start).Milliseconds()))
		failed := c.Response().StatusCode() >= fiber.StatusInternalServerError
		if failed {
			pipe.Incr(ctx, KeyReqErrors)
		}
		if _, perr := pipe.Exec(ctx); perr != nil {
			log.Warn().Err(perr).Msg("health counters not recorded")
		}
		if failed {
			if cause, ok := c.Locals(response.ErrorLocal).(error); ok {
				RecordError(rdb, c, cause)
			}
		}
		return err
	}
}
