package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/pkg/sentinel"
)

// InMemoryStore keeps the verification log in process memory. It mirrors the
// Postgres store's contract, including proof-token uniqueness on Append, so
// services behave identically in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []auditlog.Entry
	tokens  map[string]struct{}
}

func New() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]struct{})}
}

func (s *InMemoryStore) Append(_ context.Context, entry auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ProofToken != "" {
		if _, used := s.tokens[entry.ProofToken]; used {
			return sentinel.ErrAlreadyUsed
		}
		s.tokens[entry.ProofToken] = struct{}{}
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) LastVerification(_ context.Context, subjectID, serviceType string, credentialType credential.Type) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for _, e := range s.entries {
		if e.SubjectID == subjectID && e.ServiceType == serviceType && e.CredentialType == credentialType {
			if !found || e.Timestamp.After(latest) {
				latest = e.Timestamp
				found = true
			}
		}
	}
	if !found {
		return time.Time{}, sentinel.ErrNotFound
	}
	return latest, nil
}

func (s *InMemoryStore) CountSince(_ context.Context, subjectID, serviceType string, credentialType credential.Type, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.SubjectID == subjectID && e.ServiceType == serviceType && e.CredentialType == credentialType && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) TokenUsed(_ context.Context, proofToken string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, used := s.tokens[proofToken]
	return used, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string, limit, offset int) ([]auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []auditlog.Entry
	for _, e := range s.entries {
		if e.SubjectID == subjectID {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return append([]auditlog.Entry{}, matched...), nil
}
