package auditlog

import (
	"context"
	"time"

	"sahaya/internal/credential"
)

// Store is the append-only verification log. Implementations must enforce
// uniqueness of non-empty proof tokens at the storage layer: Append returns
// sentinel.ErrAlreadyUsed when the token was recorded before. That constraint
// violation, not the TokenUsed pre-check, is the authoritative replay signal.
type Store interface {
	Append(ctx context.Context, entry Entry) error

	// LastVerification returns the timestamp of the most recent entry for
	// the triple, or sentinel.ErrNotFound when the subject has never been
	// verified for it.
	LastVerification(ctx context.Context, subjectID, serviceType string, credentialType credential.Type) (time.Time, error)

	// CountSince counts entries for the triple with timestamp >= since.
	CountSince(ctx context.Context, subjectID, serviceType string, credentialType credential.Type, since time.Time) (int, error)

	// TokenUsed reports whether a proof token already appears in the log.
	// Advisory fast-path only; Append remains the arbiter under races.
	TokenUsed(ctx context.Context, proofToken string) (bool, error)

	// ListBySubject returns the subject's entries newest first.
	ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]Entry, error)
}
