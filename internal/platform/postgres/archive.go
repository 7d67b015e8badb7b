// Package postgres persists completed workflow runs. The archive is
// optional: when no database URL is configured the service keeps results in
// memory only.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oselle/lookbook-api/internal/domain"
)

// ErrRunNotFound is returned when no archived run exists for the ID.
var ErrRunNotFound = errors.New("workflow run not found")

const schema = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id           UUID PRIMARY KEY,
	username     TEXT NOT NULL,
	product      TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	result       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS workflow_runs_username_idx ON workflow_runs (username);
`

// RunRecord is one archived workflow run.
type RunRecord struct {
	ID          uuid.UUID
	Username    string
	Product     string
	Outcome     domain.Outcome
	Result      domain.Result
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Archive stores completed workflow runs in PostgreSQL.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewArchive connects to the database and verifies the connection.
func NewArchive(ctx context.Context, url string, logger *slog.Logger) (*Archive, error) {
	if url == "" {
		return nil, errors.New("database URL cannot be empty")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Archive{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the runs table if it does not exist. Called once at
// startup.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	return nil
}

// SaveRun archives a completed run. The full result is stored as JSONB so
// new result fields never need a migration.
func (a *Archive) SaveRun(ctx context.Context, req *domain.Request, result *domain.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode run result: %w", err)
	}

	query := `
		INSERT INTO workflow_runs (id, username, product, outcome, result, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET outcome = EXCLUDED.outcome, result = EXCLUDED.result, completed_at = EXCLUDED.completed_at
	`

	_, err = a.pool.Exec(ctx, query,
		req.ID,
		req.Username,
		req.Product,
		string(result.Outcome),
		payload,
		req.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to archive workflow run",
			"request_id", req.ID,
			"error", err)
		return fmt.Errorf("failed to archive run %s: %w", req.ID, err)
	}

	a.logger.DebugContext(ctx, "workflow run archived",
		"request_id", req.ID,
		"outcome", result.Outcome)
	return nil
}

// GetRun loads one archived run by request ID.
func (a *Archive) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, username, product, outcome, result, created_at, completed_at
		FROM workflow_runs
		WHERE id = $1
	`

	var (
		rec     RunRecord
		outcome string
		payload []byte
	)
	err := a.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Username,
		&rec.Product,
		&outcome,
		&payload,
		&rec.CreatedAt,
		&rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rec.Outcome = domain.Outcome(outcome)
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s result: %w", id, err)
	}
	return &rec, nil
}

// Close releases the connection pool.
func (a *Archive) Close() {
	a.pool.Close()
}
