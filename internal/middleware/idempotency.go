package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "idempotency:"
	stateInProgress   = "in_progress"
	stateCompleted    = "completed"
)

type idempotencyRecord struct {
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency makes retried writes safe. Requests without an Idempotency-Key header pass
// through untouched. The first request with a key claims it with SETNX; retries with the
// same key and body get the stored response replayed, and retries while the first is still
// running get 409.
func Idempotency(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" || rdb == nil {
			return c.Next()
		}
		ctx := context.Background()
		redisKey := idempotencyPrefix + c.Method() + ":" + c.Path() + ":" + key
		requestHash := hashBody(c.Body())

		claim, _ := json.Marshal(idempotencyRecord{State: stateInProgress, RequestHash: requestHash})
		ok, err := rdb.SetNX(ctx, redisKey, claim, ttl).Result()
		if err != nil {
			log.Error().Err(err).Str("key", redisKey).Msg("idempotency: claim failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		if !ok {
			return replay(c, rdb, redisKey, requestHash)
		}

		if err := c.Next(); err != nil {
			_ = rdb.Del(ctx, redisKey).Err()
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			_ = rdb.Del(ctx, redisKey).Err()
			return nil
		}
		record := idempotencyRecord{
			State:       stateCompleted,
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: string(c.Response().Header.ContentType()),
			RequestHash: requestHash,
		}
		payload, _ := json.Marshal(record)
		if err := rdb.Set(ctx, redisKey, payload, ttl).Err(); err != nil {
			log.Error().Err(err).Str("key", redisKey).Msg("idempotency: persist failed")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, rdb *redis.Client, redisKey, requestHash string) error {
	stored, err := rdb.Get(context.Background(), redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request with this Idempotency-Key is in progress"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if record.RequestHash != requestHash {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Idempotency-Key reused with a different request body"})
	}
	if record.State != stateCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request with this Idempotency-Key is in progress"})
	}
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	c.Set("Idempotent-Replay", "true")
	return c.Status(record.Status).Send(body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
