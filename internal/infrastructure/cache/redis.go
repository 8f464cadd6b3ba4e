package cache

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Open builds a Redis client from a redis:// or rediss:// URL. Sessions, health counters
// and donation idempotency keys all live here.
func Open(url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
