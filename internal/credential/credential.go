package credential

import "time"

// Type identifies the kind of claim a credential carries. The engine only
// evaluates credentials of a known type; rule lookup is keyed on it.
type Type string

const (
	TypeRationCard       Type = "ration_card"
	TypeHealthCard       Type = "health_card"
	TypeEducationCard    Type = "education_card"
	TypeSkillCertificate Type = "skill_certificate"
)

// Status is the issuer-asserted lifecycle state of a credential.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// DocumentVerification is the optional authenticity sub-record attached by the
// issuing pipeline. The engine reads it; it never writes it back.
type DocumentVerification struct {
	VerificationStatus string   `json:"verificationStatus"`
	DocumentHash       string   `json:"documentHash,omitempty"`
	Issues             []string `json:"issues,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// DomainDetails carries service-family-specific fields. Today only the
// subsidy (ration) family uses it; other families leave it nil.
type DomainDetails struct {
	CardType          string `json:"cardType,omitempty"`
	FamilySize        int    `json:"familySize,omitempty"`
	PortabilityStatus string `json:"portabilityStatus,omitempty"`
	HomeRegion        string `json:"homeRegion,omitempty"`
	CurrentRegion     string `json:"currentRegion,omitempty"`
}

// Credential is the claim a subject presents. It is created by an issuing
// authority outside this engine and is strictly read-only here. The proof
// block is intentionally absent from this model: signature verification is
// owned by the trust layer in front of us.
type Credential struct {
	Type                 Type                  `json:"type"`
	IssuedBy             string                `json:"issuedBy"`
	IssuedAt             time.Time             `json:"issuedAt"`
	ExpiresAt            time.Time             `json:"expiresAt"`
	Status               Status                `json:"status"`
	SubjectAttributes    map[string]any        `json:"subjectAttributes"`
	DocumentVerification *DocumentVerification `json:"documentVerification,omitempty"`
	DomainDetails        *DomainDetails        `json:"domainDetails,omitempty"`
}

// FamilySizeOrDefault returns the household size for subsidy scaling,
// defaulting to 1 when the credential does not state one.
func (c *Credential) FamilySizeOrDefault() int {
	if c.DomainDetails == nil || c.DomainDetails.FamilySize <= 0 {
		return 1
	}
	return c.DomainDetails.FamilySize
}

// IsExpired reports whether the credential's validity window has closed at
// the given instant. A zero ExpiresAt means no expiry was set.
func (c *Credential) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
