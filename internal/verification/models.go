package verification

import (
	"time"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/internal/document"
	"sahaya/internal/entitlement"
)

// Request is one eligibility evaluation. The credential's proof block has
// already been validated (or will be) by the trust layer in front of the
// engine; we treat the claim contents as given.
type Request struct {
	Credential   credential.Credential
	ServiceType  string
	SubjectID    string
	VerifierID   string
	ConsentGiven bool
	Location     *auditlog.Location
	ProofToken   string
}

// Result is the structured decision returned to the boundary.
type Result struct {
	Eligible    bool
	Reason      string
	Entitlement *entitlement.Entitlement
	Document    *document.Verdict
	Warnings    []string
	EvaluatedAt time.Time

	// Fault marks a DataFault denial: a store failed mid-evaluation and the
	// engine failed closed. Surfaced as success=false at the boundary,
	// never as a raw error.
	Fault bool
}

// Denial reasons for the policy-driven terminal states. These are part of
// the response contract verifier apps display, so change them deliberately.
const (
	ReasonNoRules   = "No eligibility rules configured for this service and credential type"
	ReasonDataFault = "error evaluating eligibility"
)
