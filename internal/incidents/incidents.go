// Package incidents adapts the external incident management system to the
// outcome tracker's escalation port. Incident creation is idempotent per
// decision: the sink owns the dedupe key.
package incidents

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"veritas/internal/outcome"
	"veritas/pkg/domain"
)

// InMemorySink records incidents in process memory. Used in tests and dev
// mode, where no external incident system is configured.
type InMemorySink struct {
	mu         sync.Mutex
	byDecision map[domain.DecisionID]domain.IncidentID
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{byDecision: make(map[domain.DecisionID]domain.IncidentID)}
}

func (s *InMemorySink) CreateIncident(_ context.Context, decisionID domain.DecisionID, _ outcome.HarmSeverity) (domain.IncidentID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byDecision[decisionID]; ok {
		return existing, false, nil
	}

	id := domain.IncidentID(uuid.New())
	s.byDecision[decisionID] = id
	return id, true, nil
}

// Count reports how many distinct incidents exist. Test helper.
func (s *InMemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byDecision)
}
