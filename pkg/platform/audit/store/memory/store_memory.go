package memory

import (
	"context"
	"sync"

	id "siappa/pkg/domain"
	audit "siappa/pkg/platform/audit"
)

// InMemoryStore keeps events per case in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.CaseID][]audit.CaseEvent
	// Published mirrors what the postgres outbox would relay.
	published []audit.CaseEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.CaseID][]audit.CaseEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CaseID] = append(s.events[event.CaseID], event)
	s.published = append(s.published, event)
	return nil
}

func (s *InMemoryStore) ListByCase(_ context.Context, caseID id.CaseID) ([]audit.CaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.CaseEvent{}, s.events[caseID]...), nil
}

// All returns every event in append order.
func (s *InMemoryStore) All() []audit.CaseEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.CaseEvent{}, s.published...)
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.CaseID][]audit.CaseEvent)
	s.published = nil
}
