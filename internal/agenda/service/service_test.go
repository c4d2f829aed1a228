package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"siappa/internal/agenda/models"
	"siappa/internal/agenda/store"
	catalogservice "siappa/internal/catalog/service"
	catalogstore "siappa/internal/catalog/store"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/requestcontext"
)

type AgendaServiceSuite struct {
	suite.Suite
	ctx       context.Context
	service   *Service
	kecamatan identity.Principal
	satgasA   identity.Principal
	satgasB   identity.Principal
}

func TestAgendaServiceSuite(t *testing.T) {
	suite.Run(t, new(AgendaServiceSuite))
}

func (s *AgendaServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	s.service = New(store.NewInMemory(), catalogservice.New(catalogstore.NewSeededInMemory()))
	s.kecamatan = identity.Principal{ID: id.PrincipalID(uuid.New()), Role: identity.RoleKecamatan}
	s.satgasA = identity.Principal{ID: id.PrincipalID(uuid.New()), Role: identity.RoleSatgas, HomeVillageID: 1, HomeVillage: "Desa A"}
	s.satgasB = identity.Principal{ID: id.PrincipalID(uuid.New()), Role: identity.RoleSatgas, HomeVillageID: 2, HomeVillage: "Desa B"}
}

func (s *AgendaServiceSuite) input(days int) models.Input {
	return models.Input{
		Title:       "Sosialisasi perlindungan anak",
		Kind:        models.KindSosialisasi,
		ScheduledAt: time.Date(2025, 8, 10+days, 9, 0, 0, 0, time.UTC),
		Location:    "Balai desa",
		Description: "Sosialisasi untuk warga",
	}
}

func (s *AgendaServiceSuite) TestSatgasOwnsHomeVillage() {
	item, err := s.service.Create(s.ctx, s.satgasA, s.input(0))
	s.Require().NoError(err)
	s.Equal(id.VillageID(1), item.VillageID)
	s.Equal(s.satgasA.ID, item.CreatedBy)

	s.Run("cannot create for another village", func() {
		in := s.input(1)
		in.VillageID = 2
		_, err := s.service.Create(s.ctx, s.satgasA, in)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("other satgas cannot see or touch it", func() {
		_, err := s.service.Update(s.ctx, s.satgasB, item.ID, s.input(2))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.True(dErrors.HasCode(s.service.Delete(s.ctx, s.satgasB, item.ID), dErrors.CodeNotFound))
		items, err := s.service.ListForScope(s.ctx, s.satgasB)
		s.Require().NoError(err)
		s.Empty(items)
	})

	s.Run("owner updates and deletes", func() {
		in := s.input(3)
		in.Title = "Pelatihan kader"
		in.Kind = models.KindPelatihan
		updated, err := s.service.Update(s.ctx, s.satgasA, item.ID, in)
		s.Require().NoError(err)
		s.Equal("Pelatihan kader", updated.Title)
		s.Require().NoError(s.service.Delete(s.ctx, s.satgasA, item.ID))
	})
}

func (s *AgendaServiceSuite) TestKecamatanMustNameVillage() {
	_, err := s.service.Create(s.ctx, s.kecamatan, s.input(0))
	s.Equal([]string{"village_id"}, dErrors.FieldsOf(err))

	in := s.input(0)
	in.VillageID = 42
	_, err = s.service.Create(s.ctx, s.kecamatan, in)
	s.Equal([]string{"village_id"}, dErrors.FieldsOf(err))

	in.VillageID = 4
	item, err := s.service.Create(s.ctx, s.kecamatan, in)
	s.Require().NoError(err)
	s.Equal(id.VillageID(4), item.VillageID)
}

func (s *AgendaServiceSuite) TestPublicListIsSortedAndUnscoped() {
	in := s.input(5)
	_, err := s.service.Create(s.ctx, s.satgasA, in)
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, s.satgasB, s.input(1))
	s.Require().NoError(err)

	items, err := s.service.ListPublic(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.True(items[0].ScheduledAt.Before(items[1].ScheduledAt))
}

func (s *AgendaServiceSuite) TestUnresolvedIsDenied() {
	unresolved := identity.Unresolved(s.kecamatan.ID)
	_, err := s.service.Create(s.ctx, unresolved, s.input(0))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = s.service.ListForScope(s.ctx, unresolved)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
