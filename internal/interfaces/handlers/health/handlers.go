package health

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	healthsvc "givehub-backend/internal/application/health"
	"givehub-backend/internal/middleware"
	"givehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const serviceName = "givehub-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Probes         []healthsvc.Probe
	HealthAdminKey string
	// Store feeds the marketplace panel of the dashboard; nil hides it.
	Store *gorm.DB
}

// Liveness GET /health answers {"status":"ok"} while the process is serving.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := c.UserContext()
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := h.Rdb.Del(ctx, keys...).Err(); err != nil {
		return response.FromError(c, err)
	}
	if err := h.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns service status, runtime, traffic and dependencies. The marketplace block
// is present when the lifecycle tables are readable.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	ctx := c.UserContext()
	result := healthsvc.CollectHealth(ctx, h.Rdb, h.DB, h.Probes...)
	body := fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	}
	if market := h.marketplace(ctx); market != nil {
		body["marketplace"] = market
	}
	return c.JSON(body)
}

func (h *Handlers) marketplace(ctx context.Context) *healthsvc.MarketplaceSnapshot {
	if h.Store == nil {
		return nil
	}
	snap, err := healthsvc.Snapshot(ctx, h.Store)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("marketplace snapshot unavailable")
		return nil
	}
	return &snap
}

// Errors returns the last 50 error log entries from Redis.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := h.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if _ = json.Unmarshal([]byte(s), &m); m != nil {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

// Dashboard renders the HTML status page with traffic, dependencies and a marketplace summary.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	result := healthsvc.CollectHealth(ctx, h.Rdb, h.DB, h.Probes...)
	page, err := healthsvc.RenderDashboardHTML(result, h.marketplace(ctx))
	if err != nil {
		return response.FromError(c, err)
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(page)
}
