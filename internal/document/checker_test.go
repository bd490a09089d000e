package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahaya/internal/credential"
)

var checkNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func verifiedCredential() *credential.Credential {
	return &credential.Credential{
		Type:     credential.TypeRationCard,
		IssuedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   credential.StatusActive,
		SubjectAttributes: map[string]any{
			"documentNumber": "RC-2025-00042",
			"age":            float64(34),
		},
		DocumentVerification: &credential.DocumentVerification{
			VerificationStatus: StatusVerified,
		},
	}
}

func TestCheck(t *testing.T) {
	t.Run("missing record yields pending not genuine", func(t *testing.T) {
		cred := verifiedCredential()
		cred.DocumentVerification = nil

		verdict := Check(cred, checkNow)
		assert.False(t, verdict.IsGenuine)
		assert.Equal(t, StatusPending, verdict.Status)
		assert.Equal(t, []string{"Document verification data not found"}, verdict.Issues)
	})

	t.Run("verified record is genuine with no issues", func(t *testing.T) {
		verdict := Check(verifiedCredential(), checkNow)
		assert.True(t, verdict.IsGenuine)
		assert.Equal(t, StatusVerified, verdict.Status)
		assert.Empty(t, verdict.Issues)
		assert.Empty(t, verdict.Recommendations)
	})

	t.Run("rejected record carries issue and recommendation", func(t *testing.T) {
		cred := verifiedCredential()
		cred.DocumentVerification.VerificationStatus = StatusRejected

		verdict := Check(cred, checkNow)
		assert.False(t, verdict.IsGenuine)
		assert.Equal(t, StatusRejected, verdict.Status)
		require.Len(t, verdict.Issues, 1)
		assert.Contains(t, verdict.Issues[0], "rejected")
		require.Len(t, verdict.Recommendations, 1)
	})

	t.Run("pending record carries pending issue", func(t *testing.T) {
		cred := verifiedCredential()
		cred.DocumentVerification.VerificationStatus = StatusPending

		verdict := Check(cred, checkNow)
		assert.False(t, verdict.IsGenuine)
		require.Len(t, verdict.Issues, 1)
		assert.Contains(t, verdict.Issues[0], "pending")
	})

	t.Run("expired credential flagged even when verified", func(t *testing.T) {
		cred := verifiedCredential()
		cred.ExpiresAt = checkNow.AddDate(0, -1, 0)

		verdict := Check(cred, checkNow)
		assert.True(t, verdict.IsGenuine, "expiry is an issue, not a tamper signal")
		require.Len(t, verdict.Issues, 1)
		assert.Contains(t, verdict.Issues[0], "expired on "+cred.ExpiresAt.Format("2006-01-02"))
		require.Len(t, verdict.Recommendations, 1)
		assert.Contains(t, verdict.Recommendations[0], "Renew")
	})

	t.Run("matching hash keeps verdict clean", func(t *testing.T) {
		cred := verifiedCredential()
		hash, err := ExpectedHash(cred)
		require.NoError(t, err)
		cred.DocumentVerification.DocumentHash = hash

		verdict := Check(cred, checkNow)
		assert.True(t, verdict.IsGenuine)
		assert.Empty(t, verdict.Issues)
	})

	t.Run("hash mismatch marks tampering and revokes genuineness", func(t *testing.T) {
		cred := verifiedCredential()
		hash, err := ExpectedHash(cred)
		require.NoError(t, err)
		cred.DocumentVerification.DocumentHash = hash

		// Attribute edited after issuance.
		cred.SubjectAttributes["age"] = float64(17)

		verdict := Check(cred, checkNow)
		assert.False(t, verdict.IsGenuine)
		require.Len(t, verdict.Issues, 1)
		assert.Contains(t, verdict.Issues[0], "tampering")
	})
}

func TestExpectedHashDeterministic(t *testing.T) {
	a, err := ExpectedHash(verifiedCredential())
	require.NoError(t, err)
	b, err := ExpectedHash(verifiedCredential())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
