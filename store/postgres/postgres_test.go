package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plankit/plankit/task"
)

func record(id string, created time.Time) *task.RunRecord {
	return &task.RunRecord{
		ID:          id,
		Request:     "weather in Bogota",
		PlanJSON:    `[{"id":"s1"}]`,
		Trace:       "s1: sunny",
		Answer:      "It is sunny.",
		Strategy:    "planned",
		CreatedAt:   created,
		CompletedAt: created.Add(time.Second),
	}
}

func TestPostgresRunStoreRecordRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")
	rec := record("run-1", time.Now())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).
		WithArgs(
			rec.ID,
			rec.Request,
			rec.PlanJSON,
			rec.Trace,
			rec.Answer,
			rec.Strategy,
			rec.CreatedAt,
			rec.CompletedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.RecordRun(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStoreLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")
	rec := record("run-1", time.Now())

	rows := pgxmock.NewRows([]string{
		"id", "request", "plan", "trace", "answer", "strategy", "created_at", "completed_at",
	}).AddRow(
		rec.ID, rec.Request, rec.PlanJSON, rec.Trace, rec.Answer, rec.Strategy,
		rec.CreatedAt, rec.CompletedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request, plan, trace, answer, strategy, created_at, completed_at")).
		WithArgs("run-1").
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Answer, loaded.Answer)
	assert.Equal(t, rec.Strategy, loaded.Strategy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStoreList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")
	base := time.Now()
	newer := record("new", base)
	older := record("old", base.Add(-time.Hour))

	rows := pgxmock.NewRows([]string{
		"id", "request", "plan", "trace", "answer", "strategy", "created_at", "completed_at",
	}).AddRow(
		newer.ID, newer.Request, newer.PlanJSON, newer.Trace, newer.Answer, newer.Strategy,
		newer.CreatedAt, newer.CompletedAt,
	).AddRow(
		older.ID, older.Request, older.PlanJSON, older.Trace, older.Answer, older.Strategy,
		older.CreatedAt, older.CompletedAt,
	)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(2).
		WillReturnRows(rows)

	runs, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStoreDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "run-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStoreQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	mock.ExpectQuery("SELECT").
		WithArgs("run-1").
		WillReturnError(errors.New("connection reset"))

	_, err = s.Load(context.Background(), "run-1")
	assert.ErrorContains(t, err, "failed to load run")
}
