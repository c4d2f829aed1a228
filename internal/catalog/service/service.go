// Package service exposes the category and village reference lists.
package service

import (
	"context"
	"errors"
	"log/slog"

	"siappa/internal/catalog/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/strings"
)

// Store is the reference data persistence port.
type Store interface {
	ListCategories(ctx context.Context, group models.Group) ([]models.Category, error)
	FindCategory(ctx context.Context, categoryID id.CategoryID) (*models.Category, error)
	ListVillages(ctx context.Context) ([]models.Village, error)
	FindVillage(ctx context.Context, villageID id.VillageID) (*models.Village, error)
	FindVillageByName(ctx context.Context, name string) (*models.Village, error)
}

// Service answers reference data lookups for case intake and the public UI.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCategories returns all categories, or those of one group when group is set.
func (s *Service) ListCategories(ctx context.Context, group models.Group) ([]models.Category, error) {
	cats, err := s.store.ListCategories(ctx, group)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return cats, nil
}

// Category returns a single category.
func (s *Service) Category(ctx context.Context, categoryID id.CategoryID) (*models.Category, error) {
	if categoryID.IsZero() {
		return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
	}
	c, err := s.store.FindCategory(ctx, categoryID)
	if err != nil {
		return nil, wrapLookupErr(err, "category")
	}
	return c, nil
}

// ListVillages returns the village list sorted by name.
func (s *Service) ListVillages(ctx context.Context) ([]models.Village, error) {
	villages, err := s.store.ListVillages(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list villages")
	}
	return villages, nil
}

// Village returns a single village by ID.
func (s *Service) Village(ctx context.Context, villageID id.VillageID) (*models.Village, error) {
	if villageID.IsZero() {
		return nil, dErrors.New(dErrors.CodeNotFound, "village not found")
	}
	v, err := s.store.FindVillage(ctx, villageID)
	if err != nil {
		return nil, wrapLookupErr(err, "village")
	}
	return v, nil
}

// ResolveVillage maps free-text input onto a known village, ignoring case and
// whitespace differences. The returned Name is the canonical spelling.
func (s *Service) ResolveVillage(ctx context.Context, name string) (*models.Village, error) {
	if strings.CollapseSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "village not found")
	}
	v, err := s.store.FindVillageByName(ctx, name)
	if err != nil {
		return nil, wrapLookupErr(err, "village")
	}
	return v, nil
}

func wrapLookupErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}
