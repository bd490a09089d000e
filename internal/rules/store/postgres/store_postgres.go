package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"sahaya/internal/credential"
	"sahaya/internal/rules"
)

// PostgresStore reads eligibility rules from PostgreSQL. The engine never
// writes policy; rules are authored and versioned by the admin tooling.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ActiveRules(ctx context.Context, serviceType string, credentialType credential.Type) ([]rules.EligibilityRule, error) {
	query := `
		SELECT id, name, service_type, credential_type, conditions,
		       cooldown_period_days, max_usage_per_month, entitlement,
		       priority, active, created_at, updated_at
		FROM eligibility_rules
		WHERE active = TRUE AND service_type = $1 AND credential_type = $2
		ORDER BY priority ASC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, serviceType, string(credentialType))
	if err != nil {
		return nil, fmt.Errorf("query active rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (s *PostgresStore) ServicePairs(ctx context.Context) ([]rules.ServicePair, error) {
	query := `
		SELECT DISTINCT service_type, credential_type
		FROM eligibility_rules
		WHERE active = TRUE
		ORDER BY service_type, credential_type
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query service pairs: %w", err)
	}
	defer rows.Close()

	var pairs []rules.ServicePair
	for rows.Next() {
		var serviceType, credType string
		if err := rows.Scan(&serviceType, &credType); err != nil {
			return nil, fmt.Errorf("scan service pair: %w", err)
		}
		pairs = append(pairs, rules.ServicePair{
			ServiceType:    serviceType,
			CredentialType: credential.Type(credType),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service pairs: %w", err)
	}
	return pairs, nil
}

func scanRules(rows *sql.Rows) ([]rules.EligibilityRule, error) {
	var out []rules.EligibilityRule
	for rows.Next() {
		var (
			rule            rules.EligibilityRule
			idRaw           uuid.UUID
			credType        string
			conditionsJSON  []byte
			entitlementJSON []byte
		)
		err := rows.Scan(
			&idRaw,
			&rule.Name,
			&rule.ServiceType,
			&credType,
			&conditionsJSON,
			&rule.CooldownPeriodDays,
			&rule.MaxUsagePerMonth,
			&entitlementJSON,
			&rule.Priority,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.ID = idRaw
		rule.CredentialType = credential.Type(credType)
		if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("decode rule conditions %s: %w", rule.ID, err)
		}
		if err := json.Unmarshal(entitlementJSON, &rule.Entitlement); err != nil {
			return nil, fmt.Errorf("decode rule entitlement %s: %w", rule.ID, err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}
