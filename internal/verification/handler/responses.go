package handler

import (
	"time"

	"sahaya/internal/auditlog"
	"sahaya/internal/document"
	"sahaya/internal/entitlement"
	"sahaya/internal/rules"
	"sahaya/internal/verification"
)

// EvaluateResponse is the wire form of a verification decision.
type EvaluateResponse struct {
	Success              bool                     `json:"success"`
	Eligible             bool                     `json:"eligible"`
	Reason               string                   `json:"reason"`
	Entitlement          *entitlement.Entitlement `json:"entitlement,omitempty"`
	DocumentVerification *document.Verdict        `json:"documentVerification,omitempty"`
	Warnings             []string                 `json:"warnings,omitempty"`
	Timestamp            string                   `json:"timestamp"`
}

// FromResult converts a service result into the response envelope.
func FromResult(result *verification.Result) EvaluateResponse {
	return EvaluateResponse{
		Success:              !result.Fault,
		Eligible:             result.Eligible,
		Reason:               result.Reason,
		Entitlement:          result.Entitlement,
		DocumentVerification: result.Document,
		Warnings:             result.Warnings,
		Timestamp:            result.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}

// ServiceResponse is one entry of the service catalog.
type ServiceResponse struct {
	ServiceType    string `json:"serviceType"`
	CredentialType string `json:"credentialType"`
}

// FromServicePairs converts catalog pairs to wire form.
func FromServicePairs(pairs []rules.ServicePair) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ServiceResponse{
			ServiceType:    p.ServiceType,
			CredentialType: string(p.CredentialType),
		})
	}
	return out
}

// HistoryResponse is the paginated verification history for a subject.
type HistoryResponse struct {
	SubjectID string           `json:"subjectId"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	Entries   []auditlog.Entry `json:"entries"`
}
