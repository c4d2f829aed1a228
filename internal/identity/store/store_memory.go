// Package store reads principal profiles owned by the authentication service.
package store

import (
	"context"
	"sync"

	"siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
)

// InMemory is a profile store for development and tests.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.PrincipalID]models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.PrincipalID]models.Profile)}
}

// Put inserts or replaces a profile.
func (s *InMemory) Put(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// Remove deletes a profile, simulating an account being revoked upstream.
func (s *InMemory) Remove(principalID id.PrincipalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, principalID)
}

func (s *InMemory) FindByID(_ context.Context, principalID id.PrincipalID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[principalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}
