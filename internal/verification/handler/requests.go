package handler

import (
	"strings"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/internal/verification"
	dErrors "sahaya/pkg/domain-errors"
)

// EvaluateRequest is the wire form of POST /verify-eligibility.
type EvaluateRequest struct {
	Credential  credential.Credential `json:"credential"`
	ServiceType string                `json:"serviceType"`
	SubjectID   string                `json:"subjectId"`
	VerifierID  string                `json:"verifierId"`
	// Pointer so an absent flag is distinguishable from an explicit false:
	// absent is an input fault, false is a consent denial.
	ConsentGiven *bool              `json:"consentGiven"`
	Location     *auditlog.Location `json:"location,omitempty"`
	ProofToken   string             `json:"proofToken,omitempty"`
}

// Normalize trims identifier fields.
func (r *EvaluateRequest) Normalize() {
	r.ServiceType = strings.TrimSpace(r.ServiceType)
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	r.VerifierID = strings.TrimSpace(r.VerifierID)
	r.ProofToken = strings.TrimSpace(r.ProofToken)
}

// Validate rejects input faults before any store access, with field-level
// messages.
func (r *EvaluateRequest) Validate() error {
	switch {
	case r.ServiceType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "serviceType is required")
	case r.SubjectID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "subjectId is required")
	case r.VerifierID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "verifierId is required")
	case r.Credential.Type == "":
		return dErrors.New(dErrors.CodeInvalidInput, "credential.type is required")
	case r.ConsentGiven == nil:
		return dErrors.New(dErrors.CodeInvalidInput, "consentGiven is required")
	}
	return nil
}

// Domain converts the wire request into the service's request type.
func (r *EvaluateRequest) Domain() verification.Request {
	return verification.Request{
		Credential:   r.Credential,
		ServiceType:  r.ServiceType,
		SubjectID:    r.SubjectID,
		VerifierID:   r.VerifierID,
		ConsentGiven: r.ConsentGiven != nil && *r.ConsentGiven,
		Location:     r.Location,
		ProofToken:   r.ProofToken,
	}
}
