// Package outcome persists decision outcomes.
package outcome

import (
	"context"
	"sync"

	outcomes "veritas/internal/outcome"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps outcomes in process memory for tests and dev mode.
type InMemoryStore struct {
	mu         sync.RWMutex
	byDecision map[domain.DecisionID]*outcomes.Outcome
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byDecision: make(map[domain.DecisionID]*outcomes.Outcome)}
}

func (s *InMemoryStore) Save(_ context.Context, o *outcomes.Outcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *o
	existing, isUpdate := s.byDecision[o.DecisionID]
	if isUpdate {
		stored.ID = existing.ID
		if stored.IncidentID == nil {
			stored.IncidentID = existing.IncidentID
		}
	}
	s.byDecision[o.DecisionID] = &stored

	o.ID = stored.ID
	o.IncidentID = stored.IncidentID
	return isUpdate, nil
}

func (s *InMemoryStore) GetByDecision(_ context.Context, decisionID domain.DecisionID) (*outcomes.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.byDecision[decisionID]; ok {
		c := *o
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}
