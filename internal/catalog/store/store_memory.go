// Package store persists the category and village reference lists.
package store

import (
	"context"
	"sort"
	"sync"

	"siappa/internal/catalog/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/strings"
)

// InMemory holds reference data in maps. Used when no database is configured
// and in unit tests.
type InMemory struct {
	mu         sync.RWMutex
	categories map[id.CategoryID]models.Category
	villages   map[id.VillageID]models.Village
}

// NewInMemory returns a store seeded with the given rows.
func NewInMemory(categories []models.Category, villages []models.Village) *InMemory {
	s := &InMemory{
		categories: make(map[id.CategoryID]models.Category, len(categories)),
		villages:   make(map[id.VillageID]models.Village, len(villages)),
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	for _, v := range villages {
		s.villages[v.ID] = v
	}
	return s
}

// NewSeededInMemory returns a store holding the default seed rows.
func NewSeededInMemory() *InMemory {
	return NewInMemory(models.DefaultCategories(), models.DefaultVillages())
}

func (s *InMemory) ListCategories(_ context.Context, group models.Group) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if group != "" && c.Group != group {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindCategory(_ context.Context, categoryID id.CategoryID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) ListVillages(_ context.Context) ([]models.Village, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Village, 0, len(s.villages))
	for _, v := range s.villages {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) FindVillage(_ context.Context, villageID id.VillageID) (*models.Village, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.villages[villageID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

// FindVillageByName matches case-insensitively and ignores whitespace runs.
func (s *InMemory) FindVillageByName(_ context.Context, name string) (*models.Village, error) {
	key := strings.FoldKey(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.villages {
		if strings.FoldKey(v.Name) == key {
			return &v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
