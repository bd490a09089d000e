package rules

import (
	"context"

	"sahaya/internal/credential"
)

// Store supplies policy to the evaluation path. Implementations must return
// only active rules, sorted ascending by priority; an empty slice means "no
// entitlement possible for this pair" and is not an error.
type Store interface {
	ActiveRules(ctx context.Context, serviceType string, credentialType credential.Type) ([]EligibilityRule, error)

	// ServicePairs lists the distinct (serviceType, credentialType)
	// combinations that have at least one active rule. Feeds the service
	// catalog endpoint.
	ServicePairs(ctx context.Context) ([]ServicePair, error)
}
