package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"siappa/internal/catalog/models"
	"siappa/internal/catalog/store"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

type CatalogServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = New(store.NewSeededInMemory())
}

func (s *CatalogServiceSuite) TestListCategories() {
	s.Run("all groups", func() {
		cats, err := s.service.ListCategories(s.ctx, "")
		s.Require().NoError(err)
		s.Len(cats, len(models.DefaultCategories()))
	})

	s.Run("filtered by group", func() {
		cats, err := s.service.ListCategories(s.ctx, models.GroupAnak)
		s.Require().NoError(err)
		s.NotEmpty(cats)
		for _, c := range cats {
			s.Equal(models.GroupAnak, c.Group)
		}
	})
}

func (s *CatalogServiceSuite) TestCategory() {
	c, err := s.service.Category(s.ctx, id.CategoryID(3))
	s.Require().NoError(err)
	s.Equal(models.GroupAnak, c.Group)

	_, err = s.service.Category(s.ctx, id.CategoryID(999))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Category(s.ctx, id.CategoryID(0))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogServiceSuite) TestResolveVillage() {
	s.Run("canonicalizes case and spacing", func() {
		v, err := s.service.ResolveVillage(s.ctx, "  desa   SUKAMAJU ")
		s.Require().NoError(err)
		s.Equal("Desa Sukamaju", v.Name)
		s.Equal(id.VillageID(3), v.ID)
	})

	s.Run("unknown village", func() {
		_, err := s.service.ResolveVillage(s.ctx, "Desa Z")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank input", func() {
		_, err := s.service.ResolveVillage(s.ctx, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CatalogServiceSuite) TestListVillagesSortedByName() {
	villages, err := s.service.ListVillages(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(villages, 4)
	for i := 1; i < len(villages); i++ {
		s.LessOrEqual(villages[i-1].Name, villages[i].Name)
	}
}
