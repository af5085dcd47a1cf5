// Package record persists decision records.
package record

import (
	"context"
	"sync"

	"veritas/internal/ledger"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in process memory. Used in tests and dev
// mode; the mutex mirrors the single-row CAS the Postgres store performs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*ledger.DecisionRecord
	byID    map[domain.DecisionID]*ledger.DecisionRecord
	byRef   map[string]*ledger.DecisionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[domain.DecisionID]*ledger.DecisionRecord),
		byRef: make(map[string]*ledger.DecisionRecord),
	}
}

func (s *InMemoryStore) Tip(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return ledger.Genesis, nil
	}
	return s.records[len(s.records)-1].RecordHash, nil
}

func (s *InMemoryStore) Append(_ context.Context, rec *ledger.DecisionRecord, expectedTip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := ledger.Genesis
	if len(s.records) > 0 {
		tip = s.records[len(s.records)-1].RecordHash
	}
	if tip != expectedTip {
		return sentinel.ErrChainConflict
	}
	if _, exists := s.byRef[rec.DecisionRef]; exists {
		return sentinel.ErrConflict
	}

	stored := *rec
	stored.Seq = int64(len(s.records)) + 1

	s.records = append(s.records, &stored)
	s.byID[stored.ID] = &stored
	s.byRef[stored.DecisionRef] = &stored

	rec.Seq = stored.Seq
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id domain.DecisionID) (*ledger.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byID[id]; ok {
		return copyRecord(rec), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) GetByRef(_ context.Context, ref string) (*ledger.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byRef[ref]; ok {
		return copyRecord(rec), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) GetBySeq(_ context.Context, seq int64) (*ledger.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq < 1 || seq > int64(len(s.records)) {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(s.records[seq-1]), nil
}

func (s *InMemoryStore) Range(_ context.Context, from, to int64) ([]*ledger.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int64(len(s.records))
	if from < 1 {
		from = 1
	}
	if to < 1 || to > n {
		to = n
	}
	if from > to {
		return nil, nil
	}

	out := make([]*ledger.DecisionRecord, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, copyRecord(s.records[i-1]))
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]*ledger.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	start := n - offset
	if start <= 0 {
		return nil, nil
	}

	out := make([]*ledger.DecisionRecord, 0, limit)
	for i := start - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyRecord(s.records[i]))
	}
	return out, nil
}

// Tamper overwrites a stored record in place, bypassing the append-only
// contract. Only reachable from tests, to prove verification catches it.
func (s *InMemoryStore) Tamper(seq int64, mutate func(*ledger.DecisionRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < 1 || seq > int64(len(s.records)) {
		return false
	}
	mutate(s.records[seq-1])
	return true
}

func copyRecord(rec *ledger.DecisionRecord) *ledger.DecisionRecord {
	c := *rec
	return &c
}
