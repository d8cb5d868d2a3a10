package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plankit/plankit/store"
	"github.com/plankit/plankit/task"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRunStore implements store.RunStore using PostgreSQL.
type PostgresRunStore struct {
	pool      DBPool
	tableName string
}

var _ store.RunStore = (*PostgresRunStore)(nil)

// PostgresOptions configuration for the Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "runs"
}

// NewPostgresRunStore creates a run store with its own connection pool.
func NewPostgresRunStore(ctx context.Context, opts PostgresOptions) (*PostgresRunStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresRunStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresRunStoreWithPool wraps an existing pool. Useful for testing
// with mocks.
func NewPostgresRunStoreWithPool(pool DBPool, tableName string) *PostgresRunStore {
	if tableName == "" {
		tableName = "runs"
	}
	return &PostgresRunStore{pool: pool, tableName: tableName}
}

// InitSchema creates the runs table if it doesn't exist.
func (s *PostgresRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			request TEXT NOT NULL,
			plan JSONB,
			trace TEXT,
			answer TEXT NOT NULL,
			strategy TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresRunStore) Close() {
	s.pool.Close()
}

// RecordRun stores a run record, replacing any record with the same id.
func (s *PostgresRunStore) RecordRun(ctx context.Context, rec *task.RunRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, request, plan, trace, answer, strategy, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			request = EXCLUDED.request,
			plan = EXCLUDED.plan,
			trace = EXCLUDED.trace,
			answer = EXCLUDED.answer,
			strategy = EXCLUDED.strategy,
			created_at = EXCLUDED.created_at,
			completed_at = EXCLUDED.completed_at
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Request,
		rec.PlanJSON,
		rec.Trace,
		rec.Answer,
		rec.Strategy,
		rec.CreatedAt,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Load retrieves a run record by id.
func (s *PostgresRunStore) Load(ctx context.Context, id string) (*task.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, request, plan, trace, answer, strategy, created_at, completed_at
		FROM %s
		WHERE id = $1
	`, s.tableName)

	var rec task.RunRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Request,
		&rec.PlanJSON,
		&rec.Trace,
		&rec.Answer,
		&rec.Strategy,
		&rec.CreatedAt,
		&rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("run record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records, newest first.
func (s *PostgresRunStore) List(ctx context.Context, limit int) ([]*task.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, request, plan, trace, answer, strategy, created_at, completed_at
		FROM %s
		ORDER BY created_at DESC
	`, s.tableName)
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*task.RunRecord
	for rows.Next() {
		var rec task.RunRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Request,
			&rec.PlanJSON,
			&rec.Trace,
			&rec.Answer,
			&rec.Strategy,
			&rec.CreatedAt,
			&rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Delete removes a run record.
func (s *PostgresRunStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
