package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sahaya/internal/auditlog/replaycache"
	auditlogmemory "sahaya/internal/auditlog/store/memory"
	auditlogpostgres "sahaya/internal/auditlog/store/postgres"
	"sahaya/internal/auth"
	sahayahttp "sahaya/internal/http"
	"sahaya/internal/platform/config"
	"sahaya/internal/platform/httpserver"
	"sahaya/internal/platform/logger"
	"sahaya/internal/platform/postgres"
	platformredis "sahaya/internal/platform/redis"
	rulesmemory "sahaya/internal/rules/store/memory"
	rulespostgres "sahaya/internal/rules/store/postgres"
	"sahaya/internal/verification"
	verificationhandler "sahaya/internal/verification/handler"
	verificationmetrics "sahaya/internal/verification/metrics"
	"sahaya/internal/verification/ports"
	"sahaya/pkg/platform/middleware/metadata"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var (
		ruleStore ports.RuleStore
		logStore  ports.LogStore
	)
	if db != nil {
		ruleStore = rulespostgres.New(db)
		logStore = auditlogpostgres.New(db)
	} else {
		// No database configured: run from seeded in-memory policy. Useful
		// for local development and demos only; the log does not survive a
		// restart.
		log.Warn("no database configured, using seeded in-memory stores")
		memRules := rulesmemory.New()
		rulesmemory.SeedDefaultRules(memRules)
		ruleStore = memRules
		logStore = auditlogmemory.New()
	}

	opts := []verification.Option{
		verification.WithMetrics(verificationmetrics.New()),
		verification.WithStoreTimeout(cfg.StoreTimeout),
	}
	if redisClient != nil {
		opts = append(opts, verification.WithReplayCache(replaycache.New(redisClient.Client, cfg.ReplayCacheTTL)))
	}

	service, err := verification.New(ruleStore, logStore, log, opts...)
	if err != nil {
		log.Error("verification service init failed", "error", err)
		os.Exit(1)
	}

	deps := sahayahttp.Dependencies{
		Verification: verificationhandler.New(service, log),
		Metadata:     metadata.New(metadata.Config{TrustedProxies: cfg.TrustedProxies}),
		Logger:       log,
		HealthCheck: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	}

	if cfg.JWTSigningKey != "" {
		validator, err := auth.NewValidator(cfg.JWTSigningKey)
		if err != nil {
			log.Error("verifier validator init failed", "error", err)
			os.Exit(1)
		}
		deps.Validator = validator
	}

	srv := httpserver.New(cfg.Addr, sahayahttp.NewRouter(deps))

	log.Info("starting sahaya", "addr", cfg.Addr, "postgres", db != nil, "redis", redisClient != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
