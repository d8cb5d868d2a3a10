package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/plankit/plankit/store"
	"github.com/plankit/plankit/task"
)

// SqliteRunStore implements store.RunStore using SQLite.
type SqliteRunStore struct {
	db        *sql.DB
	tableName string
}

var _ store.RunStore = (*SqliteRunStore)(nil)

// SqliteOptions configuration for the SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "runs"
}

// NewSqliteRunStore opens the database and creates the schema.
func NewSqliteRunStore(opts SqliteOptions) (*SqliteRunStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "runs"
	}

	s := &SqliteRunStore{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the runs table if it doesn't exist.
func (s *SqliteRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			request TEXT NOT NULL,
			plan TEXT,
			trace TEXT,
			answer TEXT NOT NULL,
			strategy TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			completed_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteRunStore) Close() error {
	return s.db.Close()
}

// RecordRun stores a run record, replacing any record with the same id.
func (s *SqliteRunStore) RecordRun(ctx context.Context, rec *task.RunRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, request, plan, trace, answer, strategy, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			request = excluded.request,
			plan = excluded.plan,
			trace = excluded.trace,
			answer = excluded.answer,
			strategy = excluded.strategy,
			created_at = excluded.created_at,
			completed_at = excluded.completed_at
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
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
func (s *SqliteRunStore) Load(ctx context.Context, id string) (*task.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, request, plan, trace, answer, strategy, created_at, completed_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	var rec task.RunRecord
	err := s.db.QueryRowContext(ctx, query, id).Scan(
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
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records, newest first.
func (s *SqliteRunStore) List(ctx context.Context, limit int) ([]*task.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, request, plan, trace, answer, strategy, created_at, completed_at
		FROM %s
		ORDER BY created_at DESC
	`, s.tableName)
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SqliteRunStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
