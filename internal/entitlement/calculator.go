// Package entitlement computes the concrete benefit granted by a passing
// rule: a flat descriptor for most services, or a quantity/price breakdown
// for the subsidy family.
package entitlement

import (
	"fmt"
	"sort"

	"sahaya/internal/credential"
	"sahaya/internal/rules"
)

// subsidyServices is the service family whose entitlement is a computed
// allocation rather than a flat label.
var subsidyServices = map[string]bool{
	"ration_subsidy":     true,
	"ration_portability": true,
}

// IsSubsidyService reports whether the service's entitlement is quantity-based.
func IsSubsidyService(serviceType string) bool {
	return subsidyServices[serviceType]
}

// Allocation is one commodity line of a subsidy entitlement. Quantity is
// already scaled by family size; Total is Quantity times PricePerUnit.
type Allocation struct {
	Commodity    string  `json:"commodity"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"pricePerUnit"`
	Total        float64 `json:"total"`
}

// Entitlement is the computed benefit attached to a positive decision.
type Entitlement struct {
	Summary           string       `json:"summary,omitempty"`
	CardType          string       `json:"cardType,omitempty"`
	FamilySize        int          `json:"familySize,omitempty"`
	Allocations       []Allocation `json:"allocations,omitempty"`
	TotalMonthlyValue float64      `json:"totalMonthlyValue,omitempty"`
	PortabilityStatus string       `json:"portabilityStatus,omitempty"`
	HomeRegion        string       `json:"homeRegion,omitempty"`
	CurrentRegion     string       `json:"currentRegion,omitempty"`
}

// Compute derives the entitlement for the first passing rule. Pure domain
// logic - given the same rule and credential it always produces the same
// output, so repeated calls are byte-identical once serialized.
func Compute(rule rules.EligibilityRule, cred *credential.Credential) *Entitlement {
	if !IsSubsidyService(rule.ServiceType) || !rule.Entitlement.HasScale() {
		return &Entitlement{Summary: rule.Entitlement.Summary}
	}

	cardType := ""
	if cred.DomainDetails != nil {
		cardType = cred.DomainDetails.CardType
	}

	table, ok := rule.Entitlement.Scale[cardType]
	if !ok {
		return &Entitlement{
			Summary:  fmt.Sprintf("No entitlement configured for card type %q", cardType),
			CardType: cardType,
		}
	}

	familySize := cred.FamilySizeOrDefault()

	// Sorted iteration keeps the breakdown deterministic.
	commodities := make([]string, 0, len(table))
	for name := range table {
		commodities = append(commodities, name)
	}
	sort.Strings(commodities)

	result := &Entitlement{
		Summary:    rule.Entitlement.Summary,
		CardType:   cardType,
		FamilySize: familySize,
	}
	for _, name := range commodities {
		rate := table[name]
		quantity := rate.Quantity * float64(familySize)
		total := quantity * rate.Price
		result.Allocations = append(result.Allocations, Allocation{
			Commodity:    name,
			Quantity:     quantity,
			Unit:         rate.Unit,
			PricePerUnit: rate.Price,
			Total:        total,
		})
		result.TotalMonthlyValue += total
	}

	if cred.DomainDetails != nil {
		result.PortabilityStatus = cred.DomainDetails.PortabilityStatus
		result.HomeRegion = cred.DomainDetails.HomeRegion
		result.CurrentRegion = cred.DomainDetails.CurrentRegion
	}
	return result
}
