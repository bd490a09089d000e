package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cred := &Credential{
		Type:     TypeHealthCard,
		IssuedBy: "State Health Authority",
		IssuedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:   StatusActive,
		SubjectAttributes: map[string]any{
			"age":          float64(42),
			"bloodGroup":   "O+",
			"chronicCare":  nil,
			"dependents":   []any{"spouse", "child"},
			"residence":    map[string]any{"district": "Pune", "state": "Maharashtra"},
			"documentName": "health-card-042",
		},
		DocumentVerification: &DocumentVerification{VerificationStatus: "verified"},
		DomainDetails:        &DomainDetails{CardType: "APL", FamilySize: 3},
	}

	t.Run("top-level field", func(t *testing.T) {
		v, ok := cred.Resolve("status")
		assert.True(t, ok)
		assert.Equal(t, "active", v)
	})

	t.Run("nested attribute", func(t *testing.T) {
		v, ok := cred.Resolve("subjectAttributes.age")
		assert.True(t, ok)
		assert.Equal(t, float64(42), v)
	})

	t.Run("deeply nested attribute", func(t *testing.T) {
		v, ok := cred.Resolve("subjectAttributes.residence.state")
		assert.True(t, ok)
		assert.Equal(t, "Maharashtra", v)
	})

	t.Run("domain details", func(t *testing.T) {
		v, ok := cred.Resolve("domainDetails.cardType")
		assert.True(t, ok)
		assert.Equal(t, "APL", v)
	})

	t.Run("document verification status", func(t *testing.T) {
		v, ok := cred.Resolve("documentVerification.verificationStatus")
		assert.True(t, ok)
		assert.Equal(t, "verified", v)
	})

	t.Run("present but null is defined", func(t *testing.T) {
		v, ok := cred.Resolve("subjectAttributes.chronicCare")
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("absent field is undefined", func(t *testing.T) {
		_, ok := cred.Resolve("subjectAttributes.noSuchField")
		assert.False(t, ok)
	})

	t.Run("descent through scalar is undefined", func(t *testing.T) {
		_, ok := cred.Resolve("subjectAttributes.age.years")
		assert.False(t, ok)
	})

	t.Run("empty path is undefined", func(t *testing.T) {
		_, ok := cred.Resolve("")
		assert.False(t, ok)
	})

	t.Run("missing optional blocks are undefined", func(t *testing.T) {
		bare := &Credential{Type: TypeRationCard, Status: StatusActive}
		_, ok := bare.Resolve("domainDetails.cardType")
		assert.False(t, ok)
		_, ok = bare.Resolve("documentVerification.verificationStatus")
		assert.False(t, ok)
	})
}

func TestFamilySizeOrDefault(t *testing.T) {
	assert.Equal(t, 1, (&Credential{}).FamilySizeOrDefault())
	assert.Equal(t, 1, (&Credential{DomainDetails: &DomainDetails{FamilySize: 0}}).FamilySizeOrDefault())
	assert.Equal(t, 1, (&Credential{DomainDetails: &DomainDetails{FamilySize: -2}}).FamilySizeOrDefault())
	assert.Equal(t, 6, (&Credential{DomainDetails: &DomainDetails{FamilySize: 6}}).FamilySizeOrDefault())
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.False(t, (&Credential{}).IsExpired(now), "zero expiry means no expiry")
	assert.False(t, (&Credential{ExpiresAt: now.AddDate(1, 0, 0)}).IsExpired(now))
	assert.True(t, (&Credential{ExpiresAt: now.AddDate(0, 0, -1)}).IsExpired(now))
}
