// Package service manages village agenda items. Anyone may read the agenda;
// satgas officers edit only their own village, kecamatan edits any.
package service

import (
	"context"
	"errors"
	"log/slog"

	"siappa/internal/agenda/models"
	catalog "siappa/internal/catalog/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, agendaID id.AgendaID) (*models.Item, error)
	List(ctx context.Context, scope identity.Scope) ([]*models.Item, error)
	Execute(ctx context.Context, agendaID id.AgendaID, validate func(*models.Item) error, mutate func(*models.Item)) (*models.Item, error)
	Delete(ctx context.Context, agendaID id.AgendaID, validate func(*models.Item) error) error
}

// Villages confirms an owning village exists.
type Villages interface {
	Village(ctx context.Context, villageID id.VillageID) (*catalog.Village, error)
}

type Service struct {
	store    Store
	villages Villages
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, villages Villages, opts ...Option) *Service {
	s := &Service{store: store, villages: villages, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPublic returns every agenda item, soonest first.
func (s *Service) ListPublic(ctx context.Context) ([]*models.Item, error) {
	items, err := s.store.List(ctx, identity.ScopeAll())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list agenda")
	}
	return items, nil
}

// ListForScope returns the items p may manage.
func (s *Service) ListForScope(ctx context.Context, p identity.Principal) ([]*models.Item, error) {
	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, p.Scope())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list agenda")
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, p identity.Principal, in models.Input) (*models.Item, error) {
	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	in, err := s.ownedInput(ctx, p, in)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	item := &models.Item{ID: id.NewAgendaID(), CreatedBy: p.ID, CreatedAt: now}
	in.Apply(item, now)
	if err := s.store.Create(ctx, item); err != nil {
		s.logger.ErrorContext(ctx, "failed to create agenda item",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create agenda item")
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, p identity.Principal, agendaID id.AgendaID, in models.Input) (*models.Item, error) {
	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	in, err := s.ownedInput(ctx, p, in)
	if err != nil {
		return nil, err
	}
	scope := p.Scope()
	now := requestcontext.Now(ctx)
	item, err := s.store.Execute(ctx, agendaID,
		func(item *models.Item) error {
			if !scope.Permits(item.VillageID) {
				return errAgendaNotFound()
			}
			return nil
		},
		func(item *models.Item) {
			in.Apply(item, now)
		},
	)
	if err != nil {
		return nil, wrapAgendaErr(err, "failed to update agenda item")
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, agendaID id.AgendaID) error {
	if err := p.RequireResolved(); err != nil {
		return err
	}
	scope := p.Scope()
	err := s.store.Delete(ctx, agendaID, func(item *models.Item) error {
		if !scope.Permits(item.VillageID) {
			return errAgendaNotFound()
		}
		return nil
	})
	if err != nil {
		return wrapAgendaErr(err, "failed to delete agenda item")
	}
	return nil
}

// ownedInput pins the owning village: satgas to their home village, kecamatan
// to a village they name.
func (s *Service) ownedInput(ctx context.Context, p identity.Principal, in models.Input) (models.Input, error) {
	if !p.IsSuperAdmin() {
		if !in.VillageID.IsZero() && in.VillageID != p.HomeVillageID {
			return in, dErrors.New(dErrors.CodeForbidden, "satgas may only manage their own village agenda")
		}
		in.VillageID = p.HomeVillageID
	}
	if in.VillageID.IsZero() {
		return in, dErrors.NewValidation("village_id")
	}
	if _, err := s.villages.Village(ctx, in.VillageID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return in, dErrors.NewValidation("village_id")
		}
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve village")
	}
	return in, nil
}

func errAgendaNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "agenda item not found")
}

func wrapAgendaErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return errAgendaNotFound()
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
