package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "sahaya/pkg/domain-errors"
	"sahaya/pkg/platform/httputil"
	"sahaya/pkg/requestcontext"
)

// TokenValidator is the seam the middleware uses so tests can stub
// validation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*VerifierClaims, error)
}

// RequireVerifier rejects requests without a valid verifier bearer token and
// records the verifier identity in the context.
func RequireVerifier(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "verifier authentication required"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid verifier token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired verifier token"))
				return
			}

			ctx = requestcontext.WithVerifierID(ctx, claims.VerifierID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
