package credential

import "strings"

// Resolve walks a dotted field path against the credential document and
// returns the value it lands on. The second return is false when any path
// segment is absent, "undefined" in rule terms. A present key holding an
// explicit null resolves to (nil, true); the exists operator relies on the
// distinction.
//
// Paths address the whole document, not just the attribute bag:
// "status", "subjectAttributes.age", "documentVerification.verificationStatus"
// are all valid.
func (c *Credential) Resolve(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = c.document()
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			// Descended into a scalar with path left over.
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// document projects the credential into the nested map shape rules are
// written against. Field names match the wire format.
func (c *Credential) document() map[string]any {
	doc := map[string]any{
		"type":              string(c.Type),
		"issuedBy":          c.IssuedBy,
		"issuedAt":          c.IssuedAt,
		"expiresAt":         c.ExpiresAt,
		"status":            string(c.Status),
		"subjectAttributes": c.SubjectAttributes,
	}
	if c.DocumentVerification != nil {
		doc["documentVerification"] = map[string]any{
			"verificationStatus": c.DocumentVerification.VerificationStatus,
			"documentHash":       c.DocumentVerification.DocumentHash,
		}
	}
	if c.DomainDetails != nil {
		doc["domainDetails"] = map[string]any{
			"cardType":          c.DomainDetails.CardType,
			"familySize":        c.DomainDetails.FamilySize,
			"portabilityStatus": c.DomainDetails.PortabilityStatus,
			"homeRegion":        c.DomainDetails.HomeRegion,
			"currentRegion":     c.DomainDetails.CurrentRegion,
		}
	}
	return doc
}
