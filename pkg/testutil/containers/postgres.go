//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors migrations/0001_init.sql; keep the two in sync.
const schema = `
CREATE TABLE IF NOT EXISTS eligibility_rules (
    id                   UUID PRIMARY KEY,
    name                 TEXT NOT NULL,
    service_type         TEXT NOT NULL,
    credential_type      TEXT NOT NULL,
    conditions           JSONB NOT NULL DEFAULT '[]',
    cooldown_period_days INTEGER NOT NULL DEFAULT 0,
    max_usage_per_month  INTEGER NOT NULL DEFAULT -1,
    entitlement          JSONB NOT NULL DEFAULT '{}',
    priority             INTEGER NOT NULL DEFAULT 100,
    active               BOOLEAN NOT NULL DEFAULT TRUE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verification_logs (
    id              UUID PRIMARY KEY,
    subject_id      TEXT NOT NULL,
    verifier_id     TEXT NOT NULL,
    service_type    TEXT NOT NULL,
    credential_type TEXT NOT NULL,
    timestamp       TIMESTAMPTZ NOT NULL,
    eligible        BOOLEAN NOT NULL,
    reason          TEXT NOT NULL,
    entitlement     JSONB,
    consent_given   BOOLEAN NOT NULL,
    location        JSONB,
    proof_token     TEXT,
    ip_address      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    device          TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_logs_proof_token
    ON verification_logs (proof_token)
    WHERE proof_token IS NOT NULL;
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// engine's schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container, applies the schema, and
// registers cleanup with the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sahaya_test"),
		tcpostgres.WithUsername("sahaya"),
		tcpostgres.WithPassword("sahaya"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{Container: container, DB: db}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
