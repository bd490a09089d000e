//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sahaya/internal/credential"
	"sahaya/internal/rules"
	"sahaya/internal/rules/store/postgres"
	"sahaya/pkg/testutil/containers"
)

type PostgresRuleStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresStore
}

func TestPostgresRuleStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRuleStoreSuite))
}

func (s *PostgresRuleStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresRuleStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "eligibility_rules"))
}

func (s *PostgresRuleStoreSuite) insertRule(name, serviceType, credentialType string, priority int, active bool, conditions, entitlement string) uuid.UUID {
	id := uuid.New()
	_, err := s.postgres.DB.Exec(`
		INSERT INTO eligibility_rules
			(id, name, service_type, credential_type, conditions,
			 cooldown_period_days, max_usage_per_month, entitlement, priority, active)
		VALUES ($1, $2, $3, $4, $5, 0, -1, $6, $7, $8)
	`, id, name, serviceType, credentialType, conditions, entitlement, priority, active)
	s.Require().NoError(err)
	return id
}

func (s *PostgresRuleStoreSuite) TestActiveRules() {
	ctx := context.Background()

	conditions := `[{"fieldPath":"status","operator":"equals","expectedValue":"active","severity":"critical","description":"card must be active"}]`
	entitlement := `{"summary":"Monthly subsidized ration","byCardType":{"BPL":{"rice":{"quantity":35,"unit":"kg","price":3}}}}`

	s.insertRule("fallback", "ration_subsidy", "ration_card", 10, true, conditions, entitlement)
	s.insertRule("primary", "ration_subsidy", "ration_card", 1, true, conditions, entitlement)
	s.insertRule("disabled", "ration_subsidy", "ration_card", 0, false, conditions, entitlement)
	s.insertRule("other", "health_emergency", "health_card", 1, true, conditions, `"Cashless emergency treatment"`)

	got, err := s.store.ActiveRules(ctx, "ration_subsidy", credential.TypeRationCard)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("primary", got[0].Name)
	s.Equal("fallback", got[1].Name)

	s.Require().Len(got[0].Conditions, 1)
	s.Equal(rules.OpEquals, got[0].Conditions[0].Operator)
	s.True(got[0].Entitlement.HasScale())
	s.Equal(35.0, got[0].Entitlement.Scale["BPL"]["rice"].Quantity)
}

func (s *PostgresRuleStoreSuite) TestFlatEntitlementDescriptor() {
	ctx := context.Background()
	s.insertRule("health", "health_emergency", "health_card", 1, true, `[]`, `"Cashless emergency treatment"`)

	got, err := s.store.ActiveRules(ctx, "health_emergency", credential.TypeHealthCard)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Cashless emergency treatment", got[0].Entitlement.Summary)
	s.False(got[0].Entitlement.HasScale())
}

func (s *PostgresRuleStoreSuite) TestServicePairs() {
	ctx := context.Background()
	s.insertRule("r1", "ration_subsidy", "ration_card", 1, true, `[]`, `"x"`)
	s.insertRule("r2", "ration_subsidy", "ration_card", 2, true, `[]`, `"x"`)
	s.insertRule("r3", "health_emergency", "health_card", 1, true, `[]`, `"x"`)
	s.insertRule("r4", "skill_training", "skill_certificate", 1, false, `[]`, `"x"`)

	pairs, err := s.store.ServicePairs(ctx)
	s.Require().NoError(err)
	s.Equal([]rules.ServicePair{
		{ServiceType: "health_emergency", CredentialType: credential.TypeHealthCard},
		{ServiceType: "ration_subsidy", CredentialType: credential.TypeRationCard},
	}, pairs)
}
