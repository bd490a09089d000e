package config

import (
	"net/netip"
	"os"
	"strings"
	"time"
)

// Config captures server-level configuration. Built from environment
// variables so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig

	// StoreTimeout bounds every rule-store and log-store round-trip.
	StoreTimeout time.Duration

	// ReplayCacheTTL bounds how long consumed proof tokens stay in Redis.
	ReplayCacheTTL time.Duration

	// JWTSigningKey enables verifier authentication when non-empty.
	JWTSigningKey string

	// TrustedProxies are CIDR prefixes allowed to set X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis;
// the replay guard then relies on the log store alone.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("SAHAYA_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("SAHAYA_DATABASE_URL"),
		StoreTimeout:   durationOr("SAHAYA_STORE_TIMEOUT", 3*time.Second),
		ReplayCacheTTL: durationOr("SAHAYA_REPLAY_CACHE_TTL", 90*24*time.Hour),
		JWTSigningKey:  os.Getenv("SAHAYA_JWT_SIGNING_KEY"),
		Redis: RedisConfig{
			URL:          os.Getenv("SAHAYA_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
	}

	for _, raw := range strings.Split(os.Getenv("SAHAYA_TRUSTED_PROXIES"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
