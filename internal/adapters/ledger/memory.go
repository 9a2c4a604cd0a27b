package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// Write is one write a MemoryStore received.
type Write struct {
	RecordID string
	Changes  []model.Change
}

// MemoryStore keeps a table in memory. Used by tests and local runs.
type MemoryStore struct {
	mu       sync.Mutex
	records  []model.LedgerRecord
	writes   []Write
	fetchErr error
	failOn   map[string]error
	nextID   int
}

// NewMemoryStore returns a store holding records in fetch order.
func NewMemoryStore(records ...model.LedgerRecord) *MemoryStore {
	return &MemoryStore{
		records: append([]model.LedgerRecord(nil), records...),
		failOn:  make(map[string]error),
	}
}

// FailFetch makes FetchAll return err until cleared with nil.
func (s *MemoryStore) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// FailUpdate makes writes to recordID return err.
func (s *MemoryStore) FailUpdate(recordID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[recordID] = err
}

// Writes returns every write attempted so far, failed ones included.
func (s *MemoryStore) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// Records returns a copy of the current table.
func (s *MemoryStore) Records() []model.LedgerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LedgerRecord(nil), s.records...)
}

// FetchAll returns a copy of the table. The field list is not applied.
func (s *MemoryStore) FetchAll(ctx context.Context, _ []model.Field) ([]model.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]model.LedgerRecord(nil), s.records...), nil
}

// Update applies changes to the record with recordID.
func (s *MemoryStore) Update(ctx context.Context, recordID string, changes []model.Change) (model.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.LedgerRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, Write{RecordID: recordID, Changes: changes})
	if err := s.failOn[recordID]; err != nil {
		return model.LedgerRecord{}, err
	}
	for i := range s.records {
		if s.records[i].ID == recordID {
			s.records[i].Apply(changes)
			return s.records[i], nil
		}
	}
	return model.LedgerRecord{}, fmt.Errorf("%w: %s", ErrNotFound, recordID)
}

// Create appends a new record with a generated id.
func (s *MemoryStore) Create(ctx context.Context, changes []model.Change) (model.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.LedgerRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, Write{Changes: changes})
	if err := s.failOn[""]; err != nil {
		return model.LedgerRecord{}, err
	}
	s.nextID++
	rec := model.LedgerRecord{ID: fmt.Sprintf("recMem%04d", s.nextID)}
	rec.Apply(changes)
	s.records = append(s.records, rec)
	return rec, nil
}
