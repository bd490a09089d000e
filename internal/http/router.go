// Package http wires the public router. It is a thin transport layer;
// business logic stays in the feature services.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sahaya/internal/auth"
	verificationhandler "sahaya/internal/verification/handler"
	"sahaya/pkg/platform/httputil"
	"sahaya/pkg/platform/middleware/metadata"
	"sahaya/pkg/platform/middleware/requestid"
)

// Dependencies collects everything the router mounts.
type Dependencies struct {
	Verification *verificationhandler.Handler
	Metadata     *metadata.Middleware
	Logger       *slog.Logger

	// Validator enables verifier authentication when non-nil.
	Validator auth.TokenValidator

	// HealthCheck pings backing stores; nil means "always healthy".
	HealthCheck func(ctx context.Context) error
}

// NewRouter wires all public endpoints.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Handler)
	if deps.Metadata != nil {
		r.Use(deps.Metadata.Handler)
	}

	r.Get("/healthz", healthHandler(deps.HealthCheck))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Validator != nil {
			r.Use(auth.RequireVerifier(deps.Validator, deps.Logger))
		}
		deps.Verification.Register(r)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
