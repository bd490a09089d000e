package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/pkg/sentinel"
)

func entry(subjectID string, ts time.Time, token string) auditlog.Entry {
	return auditlog.Entry{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		VerifierID:     "verifier-1",
		ServiceType:    "ration_subsidy",
		CredentialType: credential.TypeRationCard,
		Timestamp:      ts,
		Eligible:       true,
		Reason:         "All eligibility conditions satisfied",
		ConsentGiven:   true,
		ProofToken:     token,
	}
}

func TestAppendTokenUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, entry("subject-a", ts, "token-1")))

	t.Run("duplicate token rejected", func(t *testing.T) {
		err := store.Append(ctx, entry("subject-b", ts.Add(time.Hour), "token-1"))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("tokenless entries never collide", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, entry("subject-a", ts, "")))
		require.NoError(t, store.Append(ctx, entry("subject-a", ts, "")))
	})

	t.Run("token lookup", func(t *testing.T) {
		used, err := store.TokenUsed(ctx, "token-1")
		require.NoError(t, err)
		assert.True(t, used)

		used, err = store.TokenUsed(ctx, "token-unseen")
		require.NoError(t, err)
		assert.False(t, used)
	})
}

func TestLastVerification(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("no prior entry", func(t *testing.T) {
		_, err := store.LastVerification(ctx, "subject-a", "ration_subsidy", credential.TypeRationCard)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	require.NoError(t, store.Append(ctx, entry("subject-a", base, "")))
	require.NoError(t, store.Append(ctx, entry("subject-a", base.AddDate(0, 0, 5), "")))

	t.Run("returns most recent timestamp", func(t *testing.T) {
		last, err := store.LastVerification(ctx, "subject-a", "ration_subsidy", credential.TypeRationCard)
		require.NoError(t, err)
		assert.Equal(t, base.AddDate(0, 0, 5), last)
	})

	t.Run("triple is exact", func(t *testing.T) {
		_, err := store.LastVerification(ctx, "subject-a", "health_emergency", credential.TypeRationCard)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestCountSince(t *testing.T) {
	ctx := context.Background()
	store := New()
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// One entry before the boundary, two after, one exactly on it.
	require.NoError(t, store.Append(ctx, entry("subject-a", monthStart.Add(-time.Hour), "")))
	require.NoError(t, store.Append(ctx, entry("subject-a", monthStart, "")))
	require.NoError(t, store.Append(ctx, entry("subject-a", monthStart.AddDate(0, 0, 3), "")))
	require.NoError(t, store.Append(ctx, entry("subject-a", monthStart.AddDate(0, 0, 9), "")))

	count, err := store.CountSince(ctx, "subject-a", "ration_subsidy", credential.TypeRationCard, monthStart)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "boundary entry is counted, earlier one is not")
}

func TestListBySubject(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, entry("subject-a", base.AddDate(0, 0, i), "")))
	}
	require.NoError(t, store.Append(ctx, entry("subject-b", base, "")))

	t.Run("newest first with limit", func(t *testing.T) {
		got, err := store.ListBySubject(ctx, "subject-a", 2, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, base.AddDate(0, 0, 4), got[0].Timestamp)
		assert.Equal(t, base.AddDate(0, 0, 3), got[1].Timestamp)
	})

	t.Run("offset pages past entries", func(t *testing.T) {
		got, err := store.ListBySubject(ctx, "subject-a", 2, 4)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, base, got[0].Timestamp)
	})

	t.Run("offset past end is empty", func(t *testing.T) {
		got, err := store.ListBySubject(ctx, "subject-a", 10, 50)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("other subjects excluded", func(t *testing.T) {
		got, err := store.ListBySubject(ctx, "subject-b", 10, 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
