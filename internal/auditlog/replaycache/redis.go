package replaycache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "sahaya_replay_cache_lookup_duration_ms",
	Help:    "Latency of replay-token cache lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const usedTokenKeyPrefix = "replay:token:"

// RedisCache is a fast-path front for the log store's proof-token check in
// distributed deployments. It is an optimization only: a cache miss falls
// through to the log store, and the unique index on insert remains the
// authority under concurrent replays of the same token.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a replay cache. ttl bounds how long consumed tokens stay
// cached; it should exceed the longest plausible QR validity window.
func New(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Used reports whether the token is cached as consumed.
func (c *RedisCache) Used(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if token == "" {
		return false, nil
	}
	_, err := c.client.Get(ctx, usedTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkUsed caches the token as consumed after a successful log append.
func (c *RedisCache) MarkUsed(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	// Key existence is what matters; the value is a marker.
	return c.client.Set(ctx, usedTokenKeyPrefix+token, "1", c.ttl).Err()
}
