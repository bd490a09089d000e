package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sahaya/internal/auditlog"
	"sahaya/internal/credential"
	"sahaya/internal/entitlement"
	"sahaya/pkg/sentinel"
)

// uniqueViolation is the Postgres error code raised when an insert hits the
// partial unique index on proof_token.
const uniqueViolation = "23505"

// PostgresStore persists the verification log in PostgreSQL. The table is
// append-only; there are no UPDATE or DELETE paths here on purpose.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry auditlog.Entry) error {
	var entitlementJSON []byte
	if entry.Entitlement != nil {
		var err error
		entitlementJSON, err = json.Marshal(entry.Entitlement)
		if err != nil {
			return fmt.Errorf("marshal entitlement: %w", err)
		}
	}

	var locationJSON []byte
	if entry.Location != nil {
		var err error
		locationJSON, err = json.Marshal(entry.Location)
		if err != nil {
			return fmt.Errorf("marshal location: %w", err)
		}
	}

	var proofToken sql.NullString
	if entry.ProofToken != "" {
		proofToken = sql.NullString{String: entry.ProofToken, Valid: true}
	}

	query := `
		INSERT INTO verification_logs (
			id, subject_id, verifier_id, service_type, credential_type,
			timestamp, eligible, reason, entitlement, consent_given,
			location, proof_token, ip_address, user_agent, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.SubjectID,
		entry.VerifierID,
		entry.ServiceType,
		string(entry.CredentialType),
		entry.Timestamp,
		entry.Eligible,
		entry.Reason,
		entitlementJSON,
		entry.ConsentGiven,
		locationJSON,
		proofToken,
		entry.IPAddress,
		entry.UserAgent,
		entry.Device,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("proof token %s: %w", entry.ProofToken, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

func (s *PostgresStore) LastVerification(ctx context.Context, subjectID, serviceType string, credentialType credential.Type) (time.Time, error) {
	query := `
		SELECT timestamp
		FROM verification_logs
		WHERE subject_id = $1 AND service_type = $2 AND credential_type = $3
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var ts time.Time
	err := s.db.QueryRowContext(ctx, query, subjectID, serviceType, string(credentialType)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last verification: %w", err)
	}
	return ts, nil
}

func (s *PostgresStore) CountSince(ctx context.Context, subjectID, serviceType string, credentialType credential.Type, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_logs
		WHERE subject_id = $1 AND service_type = $2 AND credential_type = $3
		  AND timestamp >= $4
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, subjectID, serviceType, string(credentialType), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) TokenUsed(ctx context.Context, proofToken string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM verification_logs WHERE proof_token = $1)`
	var used bool
	if err := s.db.QueryRowContext(ctx, query, proofToken).Scan(&used); err != nil {
		return false, fmt.Errorf("check proof token: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]auditlog.Entry, error) {
	query := `
		SELECT id, subject_id, verifier_id, service_type, credential_type,
		       timestamp, eligible, reason, entitlement, consent_given,
		       location, proof_token, ip_address, user_agent, device
		FROM verification_logs
		WHERE subject_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query verification logs: %w", err)
	}
	defer rows.Close()

	var entries []auditlog.Entry
	for rows.Next() {
		var (
			entry           auditlog.Entry
			credType        string
			entitlementJSON []byte
			locationJSON    []byte
			proofToken      sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&entry.SubjectID,
			&entry.VerifierID,
			&entry.ServiceType,
			&credType,
			&entry.Timestamp,
			&entry.Eligible,
			&entry.Reason,
			&entitlementJSON,
			&entry.ConsentGiven,
			&locationJSON,
			&proofToken,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification log: %w", err)
		}
		entry.CredentialType = credential.Type(credType)
		entry.ProofToken = proofToken.String
		if len(entitlementJSON) > 0 {
			entry.Entitlement = &entitlement.Entitlement{}
			if err := json.Unmarshal(entitlementJSON, entry.Entitlement); err != nil {
				return nil, fmt.Errorf("decode entitlement for %s: %w", entry.ID, err)
			}
		}
		if len(locationJSON) > 0 {
			entry.Location = &auditlog.Location{}
			if err := json.Unmarshal(locationJSON, entry.Location); err != nil {
				return nil, fmt.Errorf("decode location for %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification logs: %w", err)
	}
	return entries, nil
}
