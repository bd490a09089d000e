// Package ports declares the narrow interfaces the verification service
// consumes. Keeping them here (consumer side) lets stores evolve without
// dragging the service along, and lets tests swap in-memory fakes.
package ports

import (
	"context"
	"time"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/internal/rules"
)

// RuleStore supplies active policy for a (serviceType, credentialType) pair.
type RuleStore interface {
	ActiveRules(ctx context.Context, serviceType string, credentialType credential.Type) ([]rules.EligibilityRule, error)
	ServicePairs(ctx context.Context) ([]rules.ServicePair, error)
}

// LogStore is the append-only verification log plus the usage-ledger queries
// computed over it.
type LogStore interface {
	Append(ctx context.Context, entry auditlog.Entry) error
	LastVerification(ctx context.Context, subjectID, serviceType string, credentialType credential.Type) (time.Time, error)
	CountSince(ctx context.Context, subjectID, serviceType string, credentialType credential.Type, since time.Time) (int, error)
	TokenUsed(ctx context.Context, proofToken string) (bool, error)
	ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]auditlog.Entry, error)
}

// ReplayCache is an optional fast-path in front of LogStore.TokenUsed.
type ReplayCache interface {
	Used(ctx context.Context, token string) (bool, error)
	MarkUsed(ctx context.Context, token string) error
}
