package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	auditmemory "sahaya/internal/auditlog/store/memory"
	rulesmemory "sahaya/internal/rules/store/memory"
	"sahaya/internal/verification"
	"sahaya/pkg/requestcontext"
)

func newVerifyRouter(t *testing.T, authedVerifier string) http.Handler {
	t.Helper()

	ruleStore := rulesmemory.New()
	rulesmemory.SeedDefaultRules(ruleStore)
	logStore := auditmemory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := verification.New(ruleStore, logStore, logger,
		verification.WithClock(func() time.Time {
			return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		}),
	)
	if err != nil {
		t.Fatalf("failed to build verification service: %v", err)
	}

	h := New(svc, logger)
	r := chi.NewRouter()
	if authedVerifier != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requestcontext.WithVerifierID(req.Context(), authedVerifier)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	h.Register(r)
	return r
}

func evaluatePayload(consent *bool, proofToken string) map[string]any {
	payload := map[string]any{
		"credential": map[string]any{
			"type":     "ration_card",
			"issuedBy": "Food & Civil Supplies Dept",
			"issuedAt": "2025-01-01T00:00:00Z",
			"status":   "active",
			"subjectAttributes": map[string]any{
				"age": 34,
			},
			"documentVerification": map[string]any{
				"verificationStatus": "verified",
			},
			"domainDetails": map[string]any{
				"cardType":   "BPL",
				"familySize": 4,
			},
		},
		"serviceType": "ration_subsidy",
		"subjectId":   "subject-42",
		"verifierId":  "verifier-7",
	}
	if consent != nil {
		payload["consentGiven"] = *consent
	}
	if proofToken != "" {
		payload["proofToken"] = proofToken
	}
	return payload
}

func postEvaluate(t *testing.T, router http.Handler, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/verify-eligibility", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func boolPtr(b bool) *bool { return &b }

func TestEvaluateHappyPath(t *testing.T) {
	router := newVerifyRouter(t, "")

	rec := postEvaluate(t, router, evaluatePayload(boolPtr(true), ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp EvaluateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || !resp.Eligible {
		t.Fatalf("expected an eligible decision, got success=%v eligible=%v reason=%q", resp.Success, resp.Eligible, resp.Reason)
	}
	if resp.Entitlement == nil || resp.Entitlement.TotalMonthlyValue == 0 {
		t.Fatalf("expected a computed entitlement, got %+v", resp.Entitlement)
	}
	if resp.DocumentVerification == nil || !resp.DocumentVerification.IsGenuine {
		t.Fatalf("expected a genuine document verdict, got %+v", resp.DocumentVerification)
	}
	if resp.Timestamp != "2026-03-15T12:00:00Z" {
		t.Fatalf("expected pinned timestamp, got %q", resp.Timestamp)
	}
}

func TestEvaluateConsentWithheldReturns403(t *testing.T) {
	router := newVerifyRouter(t, "")

	rec := postEvaluate(t, router, evaluatePayload(boolPtr(false), ""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for withheld consent, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEvaluateMissingConsentFieldReturns400(t *testing.T) {
	router := newVerifyRouter(t, "")

	rec := postEvaluate(t, router, evaluatePayload(nil, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when consentGiven is absent, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEvaluateReplayedTokenReturns400(t *testing.T) {
	router := newVerifyRouter(t, "")
	payload := evaluatePayload(boolPtr(true), "one-time-token")

	if rec := postEvaluate(t, router, payload); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on first presentation, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := postEvaluate(t, router, payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEvaluateRuleDenialStillReturns200(t *testing.T) {
	router := newVerifyRouter(t, "")
	payload := evaluatePayload(boolPtr(true), "")
	payload["credential"].(map[string]any)["status"] = "revoked"

	rec := postEvaluate(t, router, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a rule-driven denial, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp EvaluateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Eligible {
		t.Fatalf("expected denial for a revoked card")
	}
	if resp.Reason != "Not eligible: ration card must be active" {
		t.Fatalf("unexpected denial reason: %q", resp.Reason)
	}
}

func TestEvaluateVerifierMismatchReturns403(t *testing.T) {
	router := newVerifyRouter(t, "some-other-verifier")

	rec := postEvaluate(t, router, evaluatePayload(boolPtr(true), ""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for verifier mismatch, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServicesEndpoint(t *testing.T) {
	router := newVerifyRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var catalog []ServiceResponse
	if err := json.NewDecoder(rec.Body).Decode(&catalog); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	if len(catalog) != 5 {
		t.Fatalf("expected 5 seeded service pairs, got %d", len(catalog))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router := newVerifyRouter(t, "")

	// Two decided verifications for the subject.
	for i := 0; i < 2; i++ {
		if rec := postEvaluate(t, router, evaluatePayload(boolPtr(true), "")); rec.Code != http.StatusOK {
			t.Fatalf("setup evaluation failed with %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/subjects/subject-42/verifications?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if resp.SubjectID != "subject-42" || resp.Limit != 1 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected limit to cap entries at 1, got %d", len(resp.Entries))
	}
}
