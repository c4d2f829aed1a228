// Package store persists cases in memory or in postgres.
//
// Error contract for every implementation:
//   - sentinel.ErrNotFound when the case does not exist
//   - sentinel.ErrAlreadyUsed when a ticket code is taken
//   - errors returned by validate callbacks pass through unchanged
//   - anything else is an infrastructure failure
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"siappa/internal/cases/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
)

// InMemory keeps cases in a map guarded by one mutex. Execute holds the lock
// across validate and mutate, which gives the same read-check-write atomicity
// the postgres store gets from SELECT ... FOR UPDATE.
type InMemory struct {
	mu       sync.RWMutex
	cases    map[id.CaseID]*models.Case
	byTicket map[string]id.CaseID
}

func NewInMemory() *InMemory {
	return &InMemory{
		cases:    make(map[id.CaseID]*models.Case),
		byTicket: make(map[string]id.CaseID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byTicket[c.TicketCode]; taken {
		return fmt.Errorf("ticket %s: %w", c.TicketCode, sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	s.cases[c.ID] = c.Clone()
	s.byTicket[c.TicketCode] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *InMemory) FindByTicket(_ context.Context, code string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	caseID, ok := s.byTicket[code]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	return s.cases[caseID].Clone(), nil
}

// List returns the cases visible in scope that match filter, newest first.
func (s *InMemory) List(_ context.Context, scope identity.Scope, filter models.ListFilter) ([]*models.Case, error) {
	visible := models.ScopeFilter(scope)
	s.mu.RLock()
	out := make([]*models.Case, 0)
	for _, c := range s.cases {
		if visible(c) && filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TicketCode > out[j].TicketCode
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) CountByStatus(_ context.Context, scope identity.Scope) (map[models.Status]int, error) {
	visible := models.ScopeFilter(scope)
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, c := range s.cases {
		if visible(c) {
			counts[c.Status]++
		}
	}
	return counts, nil
}

// Execute validates and mutates the stored case under the store lock. The
// mutation is applied to a copy that replaces the stored value only after
// mutate returns.
func (s *InMemory) Execute(_ context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.cases[caseID] = working
	return working.Clone(), nil
}

// Delete removes the case after validate accepts it and returns the removed record.
func (s *InMemory) Delete(_ context.Context, caseID id.CaseID, validate func(*models.Case) error) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(current.Clone()); err != nil {
		return nil, err
	}
	delete(s.cases, caseID)
	delete(s.byTicket, current.TicketCode)
	return current.Clone(), nil
}
