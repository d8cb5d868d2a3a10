package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/plankit/plankit/task"
)

// RunStore persists engine run records and reads them back. Every
// implementation also satisfies the engine's RunRecorder contract.
type RunStore interface {
	// RecordRun stores a run record, replacing any record with the same id.
	RecordRun(ctx context.Context, rec *task.RunRecord) error

	// Load retrieves a run record by id.
	Load(ctx context.Context, id string) (*task.RunRecord, error)

	// List returns the most recent records, newest first. A non-positive
	// limit returns everything.
	List(ctx context.Context, limit int) ([]*task.RunRecord, error)

	// Delete removes a run record.
	Delete(ctx context.Context, id string) error
}

var _ task.RunRecorder = (RunStore)(nil)

// MemoryRunStore keeps run records in process memory. Useful for tests
// and short-lived tools.
type MemoryRunStore struct {
	mu      sync.RWMutex
	records map[string]*task.RunRecord
}

var _ RunStore = (*MemoryRunStore)(nil)

// NewMemoryRunStore creates an empty in-memory store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{records: make(map[string]*task.RunRecord)}
}

// RecordRun stores a copy of the record.
func (s *MemoryRunStore) RecordRun(_ context.Context, rec *task.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Load retrieves a record by id.
func (s *MemoryRunStore) Load(_ context.Context, id string) (*task.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("run record not found: %s", id)
	}
	cp := *rec
	return &cp, nil
}

// List returns records newest first.
func (s *MemoryRunStore) List(_ context.Context, limit int) ([]*task.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*task.RunRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a record; deleting a missing id is not an error.
func (s *MemoryRunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
