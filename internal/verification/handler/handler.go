package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sahaya/internal/auditlog"
	"sahaya/internal/rules"
	"sahaya/internal/verification"
	dErrors "sahaya/pkg/domain-errors"
	"sahaya/pkg/platform/httputil"
	"sahaya/pkg/requestcontext"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Service defines the interface for verification operations.
type Service interface {
	Evaluate(ctx context.Context, req verification.Request) (*verification.Result, error)
	Services(ctx context.Context) ([]rules.ServicePair, error)
	History(ctx context.Context, subjectID string, limit, offset int) ([]auditlog.Entry, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify-eligibility", h.HandleEvaluate)
	r.Get("/services", h.HandleServices)
	r.Get("/subjects/{subjectID}/verifications", h.HandleHistory)
}

// HandleEvaluate handles POST /verify-eligibility requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// When verifier auth is enabled, the token identity must match the
	// verifier claimed in the body.
	if authed := requestcontext.VerifierID(ctx); authed != "" && authed != req.VerifierID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "verifierId does not match authenticated verifier"))
		return
	}

	result, err := h.service.Evaluate(ctx, req.Domain())
	if err != nil {
		h.logger.WarnContext(ctx, "evaluation rejected",
			"request_id", requestID,
			"subject_id", req.SubjectID,
			"service", req.ServiceType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "evaluation responded",
		"request_id", requestID,
		"subject_id", req.SubjectID,
		"service", req.ServiceType,
		"eligible", result.Eligible,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleServices handles GET /services requests.
func (h *Handler) HandleServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pairs, err := h.service.Services(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "service catalog lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "service catalog unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromServicePairs(pairs))
}

// HandleHistory handles GET /subjects/{subjectID}/verifications requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "subjectID is required"))
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.service.History(ctx, subjectID, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "verification history unavailable"))
		return
	}
	if entries == nil {
		entries = []auditlog.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		SubjectID: subjectID,
		Limit:     limit,
		Offset:    offset,
		Entries:   entries,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
