package repository

import (
	"context"
	"sync"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// MemoryStore serves a fixed set of rows. Used by tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []model.SourceEntity
	err  error
}

// NewMemoryStore returns a store holding rows in the given order.
func NewMemoryStore(rows ...model.SourceEntity) *MemoryStore {
	return &MemoryStore{rows: append([]model.SourceEntity(nil), rows...)}
}

// SetRows replaces the stored rows.
func (s *MemoryStore) SetRows(rows ...model.SourceEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]model.SourceEntity(nil), rows...)
}

// FailWith makes every fetch return err until cleared with nil.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// FetchEntities returns the rows that pass f. Purpose is ignored.
func (s *MemoryStore) FetchEntities(ctx context.Context, f Filter) ([]model.SourceEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.SourceEntity, 0, len(s.rows))
	for i := range s.rows {
		if f.Match(&s.rows[i]) {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}
