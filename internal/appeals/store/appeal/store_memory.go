// Package appeal persists appeals.
package appeal

import (
	"context"
	"sort"
	"sync"
	"time"

	"veritas/internal/appeals"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// InMemoryStore keeps appeals in process memory for tests and dev mode.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[domain.AppealID]*appeals.Appeal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[domain.AppealID]*appeals.Appeal)}
}

func (s *InMemoryStore) Create(_ context.Context, a *appeals.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *a
	s.byID[a.ID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.AppealID) (*appeals.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *InMemoryStore) Update(_ context.Context, a *appeals.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != a.Version {
		return sentinel.ErrVersionConflict
	}

	a.Version++
	updated := *a
	s.byID[a.ID] = &updated
	return nil
}

func (s *InMemoryStore) ListByDecision(_ context.Context, decisionID domain.DecisionID) ([]*appeals.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*appeals.Appeal
	for _, a := range s.byID {
		if a.DecisionID == decisionID {
			c := *a
			out = append(out, &c)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) ListOverdue(_ context.Context, now time.Time) ([]*appeals.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*appeals.Appeal
	for _, a := range s.byID {
		if !a.Status.IsTerminal() && now.After(a.SLADeadline) {
			c := *a
			out = append(out, &c)
		}
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(out []*appeals.Appeal) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
