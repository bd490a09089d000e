// Package document derives an authenticity verdict from the optional
// document-verification sub-record of a credential. The verdict is advisory:
// it rides on the evaluation result but only blocks eligibility when a rule
// explicitly tests document_verified.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"sahaya/internal/credential"
)

const (
	StatusVerified = "verified"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// Verdict is the human-facing authenticity summary.
type Verdict struct {
	IsGenuine       bool     `json:"isGenuine"`
	Status          string   `json:"status"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Check inspects the credential's document-verification record as of now.
// Pure domain logic - no I/O, no side effects.
func Check(cred *credential.Credential, now time.Time) Verdict {
	dv := cred.DocumentVerification
	if dv == nil {
		return Verdict{
			IsGenuine: false,
			Status:    StatusPending,
			Issues:    []string{"Document verification data not found"},
		}
	}

	verdict := Verdict{
		Status:    dv.VerificationStatus,
		IsGenuine: dv.VerificationStatus == StatusVerified,
	}

	switch dv.VerificationStatus {
	case StatusVerified:
		// Nothing to flag.
	case StatusRejected:
		verdict.Issues = append(verdict.Issues, "Document was rejected during verification")
		verdict.Recommendations = append(verdict.Recommendations, "Re-submit the document for verification with the issuing authority")
	default:
		verdict.Issues = append(verdict.Issues, "Document verification is still pending")
	}

	if cred.IsExpired(now) {
		verdict.Issues = append(verdict.Issues, fmt.Sprintf("Credential expired on %s", cred.ExpiresAt.Format("2006-01-02")))
		verdict.Recommendations = append(verdict.Recommendations, "Renew the credential before presenting it again")
	}

	if dv.DocumentHash != "" {
		expected, err := ExpectedHash(cred)
		if err != nil || expected != dv.DocumentHash {
			verdict.Issues = append(verdict.Issues, "Document hash does not match credential contents; possible tampering")
			verdict.IsGenuine = false
		}
	}

	return verdict
}

// ExpectedHash recomputes the document hash over the canonical subset of
// credential fields the issuing pipeline commits to: document number,
// issuance date, and the subject attribute bag. encoding/json sorts map keys,
// which keeps the attribute serialization canonical.
func ExpectedHash(cred *credential.Credential) (string, error) {
	attrs, err := json.Marshal(cred.SubjectAttributes)
	if err != nil {
		return "", fmt.Errorf("marshal subject attributes: %w", err)
	}

	docNumber := ""
	if v, ok := cred.SubjectAttributes["documentNumber"]; ok {
		docNumber = fmt.Sprintf("%v", v)
	}

	payload := fmt.Sprintf("%s|%s|%s", docNumber, cred.IssuedAt.UTC().Format(time.RFC3339), attrs)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}
