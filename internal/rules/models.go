package rules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sahaya/internal/credential"
)

// Severity classifies how a failed condition affects the decision. Critical
// failures deny; warnings accumulate on the result without blocking it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Condition is a single predicate inside a rule: resolve FieldPath against
// the credential, apply Operator to the resolved value and Expected.
type Condition struct {
	FieldPath   string   `json:"fieldPath"`
	Operator    Operator `json:"operator"`
	Expected    any      `json:"expectedValue,omitempty"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description,omitempty"`
}

// EligibilityRule is an administrator-authored policy unit keyed by
// (serviceType, credentialType). Rules for the same pair evaluate in
// ascending Priority order; the first passing rule supplies the entitlement.
// Cooldown and monthly-cap limits apply across all active rules for the pair.
type EligibilityRule struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	ServiceType        string          `json:"serviceType"`
	CredentialType     credential.Type `json:"credentialType"`
	Conditions         []Condition     `json:"conditions"`
	CooldownPeriodDays int             `json:"cooldownPeriodDays"`
	// MaxUsagePerMonth caps successful uses within the calendar month.
	// -1 means unlimited.
	MaxUsagePerMonth int             `json:"maxUsagePerMonth"`
	Entitlement      EntitlementSpec `json:"entitlementDescriptor"`
	Priority         int             `json:"priority"`
	Active           bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt,omitempty"`
}

// CommodityRate is the monthly allocation of one commodity per family member.
type CommodityRate struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
}

// CommodityTable maps commodity name to its rate.
type CommodityTable map[string]CommodityRate

// EntitlementSpec is the rule's entitlement descriptor. Either a flat Summary
// string, or a per-card-type commodity scale for subsidy-family services, or
// both (summary shown alongside the computed breakdown).
//
// Administrators have historically authored the scale in two wire shapes: a
// plain object keyed by card type, and an ordered list of {cardType,
// commodities} pairs. UnmarshalJSON accepts both and normalizes into the one
// canonical map so the entitlement calculator has a single code path.
type EntitlementSpec struct {
	Summary string                    `json:"summary,omitempty"`
	Scale   map[string]CommodityTable `json:"byCardType,omitempty"`
}

type entitlementSpecWire struct {
	Summary string                    `json:"summary,omitempty"`
	Scale   map[string]CommodityTable `json:"byCardType,omitempty"`
}

type cardTypeEntryWire struct {
	CardType    string         `json:"cardType"`
	Commodities CommodityTable `json:"commodities"`
}

// UnmarshalJSON accepts a flat string, a canonical object, or an ordered list
// of card-type entries.
func (s *EntitlementSpec) UnmarshalJSON(data []byte) error {
	var flat string
	if err := json.Unmarshal(data, &flat); err == nil {
		*s = EntitlementSpec{Summary: flat}
		return nil
	}

	var entries []cardTypeEntryWire
	if err := json.Unmarshal(data, &entries); err == nil {
		scale := make(map[string]CommodityTable, len(entries))
		for _, e := range entries {
			if e.CardType == "" {
				return fmt.Errorf("entitlement descriptor entry missing cardType")
			}
			scale[e.CardType] = e.Commodities
		}
		*s = EntitlementSpec{Scale: scale}
		return nil
	}

	var wire entitlementSpecWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode entitlement descriptor: %w", err)
	}
	*s = EntitlementSpec(wire)
	return nil
}

// HasScale reports whether the descriptor carries a per-card-type table,
// which switches the calculator into the structured subsidy path.
func (s EntitlementSpec) HasScale() bool {
	return len(s.Scale) > 0
}

// ServicePair is one configured (serviceType, credentialType) combination.
type ServicePair struct {
	ServiceType    string          `json:"serviceType"`
	CredentialType credential.Type `json:"credentialType"`
}
