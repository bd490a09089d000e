package memory

import (
	"github.com/google/uuid"

	"sahaya/internal/credential"
	"sahaya/internal/rules"
)

// SeedDefaultRules loads the stock benefit policies so a fresh node can make
// decisions before an administrator configures anything. Quantities in the
// ration scale are per family member per month.
func SeedDefaultRules(s *InMemoryStore) {
	rationScale := map[string]rules.CommodityTable{
		"BPL": {
			"rice":     {Quantity: 35, Unit: "kg", Price: 3},
			"wheat":    {Quantity: 15, Unit: "kg", Price: 2},
			"sugar":    {Quantity: 1, Unit: "kg", Price: 13.5},
			"kerosene": {Quantity: 5, Unit: "litre", Price: 15},
		},
		"APL": {
			"rice":  {Quantity: 15, Unit: "kg", Price: 8.3},
			"wheat": {Quantity: 10, Unit: "kg", Price: 6.1},
		},
		"AAY": {
			"rice":  {Quantity: 35, Unit: "kg", Price: 2},
			"wheat": {Quantity: 20, Unit: "kg", Price: 1.5},
			"sugar": {Quantity: 1.5, Unit: "kg", Price: 13.5},
		},
	}

	s.Put(rules.EligibilityRule{
		ID:             uuid.New(),
		Name:           "ration-subsidy-standard",
		ServiceType:    "ration_subsidy",
		CredentialType: credential.TypeRationCard,
		Conditions: []rules.Condition{
			{FieldPath: "status", Operator: rules.OpEquals, Expected: "active", Severity: rules.SeverityCritical, Description: "ration card must be active"},
			{FieldPath: "domainDetails.cardType", Operator: rules.OpExists, Severity: rules.SeverityCritical, Description: "card type must be present"},
			{FieldPath: "documentVerification.verificationStatus", Operator: rules.OpDocumentVerified, Severity: rules.SeverityWarning, Description: "card document not yet verified"},
		},
		CooldownPeriodDays: 0,
		MaxUsagePerMonth:   1,
		Entitlement:        rules.EntitlementSpec{Scale: rationScale},
		Priority:           1,
		Active:             true,
	})

	s.Put(rules.EligibilityRule{
		ID:             uuid.New(),
		Name:           "ration-portability",
		ServiceType:    "ration_portability",
		CredentialType: credential.TypeRationCard,
		Conditions: []rules.Condition{
			{FieldPath: "status", Operator: rules.OpEquals, Expected: "active", Severity: rules.SeverityCritical, Description: "ration card must be active"},
			{FieldPath: "subjectAttributes.ONORC_enabled", Operator: rules.OpEquals, Expected: true, Severity: rules.SeverityCritical, Description: "card must be ONORC enabled for portability"},
		},
		CooldownPeriodDays: 30,
		MaxUsagePerMonth:   1,
		Entitlement:        rules.EntitlementSpec{Summary: "Ration entitlement portable to current region", Scale: rationScale},
		Priority:           1,
		Active:             true,
	})

	s.Put(rules.EligibilityRule{
		ID:             uuid.New(),
		Name:           "health-emergency-coverage",
		ServiceType:    "health_emergency",
		CredentialType: credential.TypeHealthCard,
		Conditions: []rules.Condition{
			{FieldPath: "status", Operator: rules.OpEquals, Expected: "active", Severity: rules.SeverityCritical, Description: "health card must be active"},
			{FieldPath: "subjectAttributes.coverageAmount", Operator: rules.OpGreaterThan, Expected: 0, Severity: rules.SeverityCritical, Description: "coverage must remain on the card"},
			{FieldPath: "documentVerification.verificationStatus", Operator: rules.OpDocumentVerified, Severity: rules.SeverityWarning, Description: "health card document not yet verified"},
		},
		CooldownPeriodDays: 0,
		MaxUsagePerMonth:   -1,
		Entitlement:        rules.EntitlementSpec{Summary: "Cashless emergency treatment up to remaining coverage"},
		Priority:           1,
		Active:             true,
	})

	s.Put(rules.EligibilityRule{
		ID:             uuid.New(),
		Name:           "education-scholarship-annual",
		ServiceType:    "education_scholarship",
		CredentialType: credential.TypeEducationCard,
		Conditions: []rules.Condition{
			{FieldPath: "status", Operator: rules.OpEquals, Expected: "active", Severity: rules.SeverityCritical, Description: "education card must be active"},
			{FieldPath: "subjectAttributes.annualIncome", Operator: rules.OpLessThan, Expected: 250000, Severity: rules.SeverityCritical, Description: "household income must be below the scholarship ceiling"},
			{FieldPath: "subjectAttributes.enrollmentYear", Operator: rules.OpInRange, Expected: []any{2020, 2026}, Severity: rules.SeverityWarning, Description: "enrollment year outside the current scheme window"},
		},
		CooldownPeriodDays: 365,
		MaxUsagePerMonth:   1,
		Entitlement:        rules.EntitlementSpec{Summary: "Annual scholarship disbursement"},
		Priority:           1,
		Active:             true,
	})

	s.Put(rules.EligibilityRule{
		ID:             uuid.New(),
		Name:           "skill-training-access",
		ServiceType:    "skill_training",
		CredentialType: credential.TypeSkillCertificate,
		Conditions: []rules.Condition{
			{FieldPath: "status", Operator: rules.OpEquals, Expected: "active", Severity: rules.SeverityCritical, Description: "certificate must be active"},
			{FieldPath: "issuedAt", Operator: rules.OpDateValid, Expected: 730, Severity: rules.SeverityCritical, Description: "certificate must have been issued within the last two years"},
		},
		CooldownPeriodDays: 0,
		MaxUsagePerMonth:   4,
		Entitlement:        rules.EntitlementSpec{Summary: "Access to advanced skill training batch"},
		Priority:           1,
		Active:             true,
	})
}
