package auditlog

import (
	"time"

	"github.com/google/uuid"

	"sahaya/internal/credential"
	"sahaya/internal/entitlement"
)

// Location is where the verification physically happened, as reported by the
// verifier device.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Entry is one immutable verification record. The log is append-only and is
// the sole source of truth for cooldown, monthly-cap, and replay decisions,
// so entries are never updated or deleted.
type Entry struct {
	ID             uuid.UUID                `json:"id"`
	SubjectID      string                   `json:"subjectId"`
	VerifierID     string                   `json:"verifierId"`
	ServiceType    string                   `json:"serviceType"`
	CredentialType credential.Type          `json:"credentialType"`
	Timestamp      time.Time                `json:"timestamp"`
	Eligible       bool                     `json:"eligible"`
	Reason         string                   `json:"reason"`
	Entitlement    *entitlement.Entitlement `json:"entitlement,omitempty"`
	ConsentGiven   bool                     `json:"consentGiven"`
	Location       *Location                `json:"location,omitempty"`
	ProofToken     string                   `json:"proofToken,omitempty"`
	IPAddress      string                   `json:"ipAddress,omitempty"`
	UserAgent      string                   `json:"userAgent,omitempty"`
	Device         string                   `json:"device,omitempty"`
}
