package memory

import (
	"context"
	"sort"
	"sync"

	"sahaya/internal/credential"
	"sahaya/internal/rules"
)

// InMemoryStore holds rules in process memory. Used in tests and in
// single-node deployments that load policy from seed data at startup.
type InMemoryStore struct {
	mu    sync.RWMutex
	rules []rules.EligibilityRule
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

// Put adds or replaces a rule by ID.
func (s *InMemoryStore) Put(rule rules.EligibilityRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.ID == rule.ID {
			s.rules[i] = rule
			return
		}
	}
	s.rules = append(s.rules, rule)
}

func (s *InMemoryStore) ActiveRules(_ context.Context, serviceType string, credentialType credential.Type) ([]rules.EligibilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []rules.EligibilityRule
	for _, r := range s.rules {
		if r.Active && r.ServiceType == serviceType && r.CredentialType == credentialType {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority < matched[j].Priority
		}
		return matched[i].Name < matched[j].Name
	})
	return matched, nil
}

func (s *InMemoryStore) ServicePairs(_ context.Context) ([]rules.ServicePair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[rules.ServicePair]struct{})
	var pairs []rules.ServicePair
	for _, r := range s.rules {
		if !r.Active {
			continue
		}
		pair := rules.ServicePair{ServiceType: r.ServiceType, CredentialType: r.CredentialType}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ServiceType != pairs[j].ServiceType {
			return pairs[i].ServiceType < pairs[j].ServiceType
		}
		return pairs[i].CredentialType < pairs[j].CredentialType
	})
	return pairs, nil
}
