// Package store persists agenda items.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"siappa/internal/agenda/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	items map[id.AgendaID]*models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.AgendaID]*models.Item)}
}

func (s *InMemory) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("agenda %s: %w", item.ID, sentinel.ErrAlreadyUsed)
	}
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, agendaID id.AgendaID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[agendaID]
	if !ok {
		return nil, fmt.Errorf("agenda not found: %w", sentinel.ErrNotFound)
	}
	return item.Clone(), nil
}

// List returns items visible in scope, soonest first.
func (s *InMemory) List(_ context.Context, scope identity.Scope) ([]*models.Item, error) {
	s.mu.RLock()
	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		if scope.Permits(item.VillageID) {
			out = append(out, item.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, agendaID id.AgendaID, validate func(*models.Item) error, mutate func(*models.Item)) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[agendaID]
	if !ok {
		return nil, fmt.Errorf("agenda not found: %w", sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.items[agendaID] = working
	return working.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, agendaID id.AgendaID, validate func(*models.Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[agendaID]
	if !ok {
		return fmt.Errorf("agenda not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(current.Clone()); err != nil {
		return err
	}
	delete(s.items, agendaID)
	return nil
}
