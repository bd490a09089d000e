package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sahaya/internal/auditlog"
	"sahaya/internal/document"
	"sahaya/internal/entitlement"
	"sahaya/internal/rules"
	"sahaya/internal/verification/metrics"
	"sahaya/internal/verification/ports"
	dErrors "sahaya/pkg/domain-errors"
	"sahaya/pkg/requestcontext"
	"sahaya/pkg/sentinel"
)

// defaultStoreTimeout bounds every store round-trip so a slow backend fails
// the evaluation closed instead of hanging the verifier.
const defaultStoreTimeout = 3 * time.Second

// Clock abstracts time for temporal-policy tests.
type Clock func() time.Time

// Service is the evaluation orchestrator. It is stateless per request; the
// only shared mutable resource is the append-only log store behind it.
type Service struct {
	rules        ports.RuleStore
	log          ports.LogStore
	replay       ports.ReplayCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	clock        Clock
	storeTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithReplayCache installs the optional fast-path token cache.
func WithReplayCache(cache ports.ReplayCache) Option {
	return func(s *Service) { s.replay = cache }
}

// WithMetrics installs verification metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStoreTimeout overrides the per-query store timeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// New constructs the orchestrator with its injected stores.
func New(ruleStore ports.RuleStore, logStore ports.LogStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if ruleStore == nil {
		return nil, errors.New("rule store is required")
	}
	if logStore == nil {
		return nil, errors.New("log store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	s := &Service{
		rules:        ruleStore,
		log:          logStore,
		logger:       logger,
		clock:        time.Now,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Evaluate runs the full decision pipeline:
//
//	consent -> replay -> rules -> usage limits -> conditions -> entitlement -> log
//
// Policy denials come back as a Result with Eligible=false. Withheld consent
// and replayed tokens come back as domain errors instead, because those two
// paths terminate before anything is written to the log.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveEvaluateLatency(time.Since(start)) }()

	now := s.evaluationTime(ctx)

	// Consent gate. No store access and no log entry before this passes.
	if !req.ConsentGiven {
		return nil, dErrors.New(dErrors.CodeMissingConsent, "consent is required to verify eligibility")
	}

	// Replay pre-check. Advisory: the unique constraint on append remains
	// the arbiter if two replays race past this point.
	if req.ProofToken != "" {
		used, err := s.tokenUsed(ctx, req.ProofToken)
		if err != nil {
			return s.dataFault(ctx, req, now, "replay check failed", err)
		}
		if used {
			return nil, dErrors.New(dErrors.CodeReplayedToken, "proof token has already been used")
		}
	}

	activeRules, err := s.activeRules(ctx, req)
	if err != nil {
		return s.dataFault(ctx, req, now, "rule lookup failed", err)
	}
	if len(activeRules) == 0 {
		// No entitlement possible; a normal denial, not an error.
		return s.finalize(ctx, req, &Result{Reason: ReasonNoRules, EvaluatedAt: now})
	}

	// Temporal-usage gates run across all active rules, before any
	// conditions, so a low-priority rule's cooldown still halts the
	// decision.
	if needsUsageData(activeRules) {
		usage, err := s.gatherUsage(ctx, req, now)
		if err != nil {
			return s.dataFault(ctx, req, now, "usage ledger query failed", err)
		}
		if reason, blocked := checkUsageLimits(activeRules, usage, now); blocked {
			return s.finalize(ctx, req, &Result{Reason: reason, EvaluatedAt: now})
		}
	}

	verdict := document.Check(&req.Credential, now)

	var (
		warnings     []string
		firstFailure *rules.ConditionOutcome
		passing      *rules.EligibilityRule
	)
	for i := range activeRules {
		failed, ruleWarnings := rules.EvaluateConditions(&req.Credential, activeRules[i].Conditions, now)
		warnings = append(warnings, ruleWarnings...)
		if len(failed) == 0 {
			passing = &activeRules[i]
			break
		}
		if firstFailure == nil {
			firstFailure = &failed[0]
		}
	}

	if passing == nil {
		return s.finalize(ctx, req, &Result{
			Reason:      rules.FailureReason(*firstFailure),
			Document:    &verdict,
			Warnings:    warnings,
			EvaluatedAt: now,
		})
	}

	return s.finalize(ctx, req, &Result{
		Eligible:    true,
		Reason:      "All eligibility conditions satisfied",
		Entitlement: entitlement.Compute(*passing, &req.Credential),
		Document:    &verdict,
		Warnings:    warnings,
		EvaluatedAt: now,
	})
}

// Services lists the configured service catalog.
func (s *Service) Services(ctx context.Context) ([]rules.ServicePair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rules.ServicePairs(ctx)
}

// History returns a subject's verification entries, newest first.
func (s *Service) History(ctx context.Context, subjectID string, limit, offset int) ([]auditlog.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.log.ListBySubject(ctx, subjectID, limit, offset)
}

// finalize appends exactly one log entry for the terminal state and returns
// the result. Losing the proof-token race here converts into the same
// replay denial the pre-check produces.
func (s *Service) finalize(ctx context.Context, req Request, result *Result) (*Result, error) {
	entry := auditlog.Entry{
		ID:             uuid.New(),
		SubjectID:      req.SubjectID,
		VerifierID:     req.VerifierID,
		ServiceType:    req.ServiceType,
		CredentialType: req.Credential.Type,
		Timestamp:      result.EvaluatedAt,
		Eligible:       result.Eligible,
		Reason:         result.Reason,
		Entitlement:    result.Entitlement,
		ConsentGiven:   true,
		Location:       req.Location,
		ProofToken:     req.ProofToken,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Device:         requestcontext.Device(ctx),
	}

	appendStart := time.Now()
	appendCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	err := s.log.Append(appendCtx, entry)
	s.metrics.ObserveStoreLatency("append", time.Since(appendStart))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeReplayedToken, "proof token has already been used")
		}
		return s.dataFault(ctx, req, result.EvaluatedAt, "log append failed", err)
	}

	if s.replay != nil && req.ProofToken != "" {
		if err := s.replay.MarkUsed(ctx, req.ProofToken); err != nil {
			// Cache only; the log store already holds the token.
			s.logger.WarnContext(ctx, "replay cache mark failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	decision := "denied"
	if result.Eligible {
		decision = "granted"
	}
	s.metrics.IncrementOutcome(decision, req.ServiceType)
	s.logger.InfoContext(ctx, "eligibility evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", req.SubjectID,
		"verifier_id", req.VerifierID,
		"service", req.ServiceType,
		"credential_type", req.Credential.Type,
		"eligible", result.Eligible,
		"reason", result.Reason,
	)
	return result, nil
}

// dataFault is the DataFault terminal: log internally, fail closed with a
// generic denial, never retry (a retry could double-count usage).
func (s *Service) dataFault(ctx context.Context, req Request, now time.Time, msg string, err error) (*Result, error) {
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", req.SubjectID,
		"service", req.ServiceType,
		"error", err,
	)
	s.metrics.IncrementOutcome("fault", req.ServiceType)
	return &Result{Reason: ReasonDataFault, Fault: true, EvaluatedAt: now}, nil
}

func (s *Service) evaluationTime(ctx context.Context) time.Time {
	if t := requestcontext.Time(ctx); !t.IsZero() {
		return t
	}
	return s.clock()
}

func (s *Service) tokenUsed(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if s.replay != nil {
		used, err := s.replay.Used(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "replay cache lookup failed, falling through to log store",
				"error", err,
			)
		} else if used {
			return true, nil
		}
	}

	start := time.Now()
	used, err := s.log.TokenUsed(ctx, token)
	s.metrics.ObserveStoreLatency("token", time.Since(start))
	if err != nil {
		return false, fmt.Errorf("token lookup: %w", err)
	}
	return used, nil
}

func (s *Service) activeRules(ctx context.Context, req Request) ([]rules.EligibilityRule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	activeRules, err := s.rules.ActiveRules(ctx, req.ServiceType, req.Credential.Type)
	s.metrics.ObserveStoreLatency("rules", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("active rules: %w", err)
	}
	return activeRules, nil
}

// gatherUsage runs the two ledger queries in parallel with shared context
// cancellation.
func (s *Service) gatherUsage(ctx context.Context, req Request, now time.Time) (usageSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var usage usageSnapshot

	g.Go(func() error {
		start := time.Now()
		last, err := s.log.LastVerification(ctx, req.SubjectID, req.ServiceType, req.Credential.Type)
		s.metrics.ObserveStoreLatency("last_verification", time.Since(start))
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("last verification: %w", err)
		}
		usage.lastVerification = last
		usage.hasPrior = true
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		count, err := s.log.CountSince(ctx, req.SubjectID, req.ServiceType, req.Credential.Type, monthStart(now))
		s.metrics.ObserveStoreLatency("month_count", time.Since(start))
		if err != nil {
			return fmt.Errorf("month count: %w", err)
		}
		usage.countThisMonth = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return usageSnapshot{}, err
	}
	return usage, nil
}
