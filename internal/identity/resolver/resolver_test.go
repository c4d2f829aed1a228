package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"siappa/internal/identity/metrics"
	"siappa/internal/identity/models"
	"siappa/internal/identity/store"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

type failingStore struct{}

func (failingStore) FindByID(context.Context, id.PrincipalID) (*models.Profile, error) {
	return nil, errors.New("connection reset by peer")
}

type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	profiles *store.InMemory
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.profiles = store.NewInMemory()
	s.resolver = New(s.profiles, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ResolverSuite) TestResolvesRoles() {
	kec := id.PrincipalID(uuid.New())
	sat := id.PrincipalID(uuid.New())
	s.profiles.Put(models.Profile{ID: kec, Role: "kecamatan", FullName: "Admin Kecamatan"})
	s.profiles.Put(models.Profile{ID: sat, Role: "satgas", VillageID: 1, VillageName: "Desa A"})

	p, err := s.resolver.Resolve(s.ctx, kec)
	s.Require().NoError(err)
	s.True(p.IsSuperAdmin())

	p, err = s.resolver.Resolve(s.ctx, sat)
	s.Require().NoError(err)
	s.Equal(models.RoleSatgas, p.Role)
	s.Equal("Desa A", p.HomeVillage)
}

func (s *ResolverSuite) TestMissingProfileIsUnresolved() {
	p, err := s.resolver.Resolve(s.ctx, id.PrincipalID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal(models.RoleUnresolved, p.Role)
	s.True(p.Scope().IsNone())
}

func (s *ResolverSuite) TestStoreFailureIsUnresolved() {
	r := New(failingStore{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	p, err := r.Resolve(s.ctx, id.PrincipalID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.False(p.IsSuperAdmin())
}

func (s *ResolverSuite) TestNilPrincipalIsUnresolved() {
	p, err := s.resolver.Resolve(s.ctx, id.PrincipalID{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.False(p.IsResolved())
}

// A role change upstream takes effect on the next request.
func (s *ResolverSuite) TestRoleChangeIsNotCached() {
	pid := id.PrincipalID(uuid.New())
	s.profiles.Put(models.Profile{ID: pid, Role: "kecamatan"})
	p, err := s.resolver.Resolve(s.ctx, pid)
	s.Require().NoError(err)
	s.True(p.IsSuperAdmin())

	s.profiles.Put(models.Profile{ID: pid, Role: "satgas", VillageID: 2, VillageName: "Desa B"})
	p, err = s.resolver.Resolve(s.ctx, pid)
	s.Require().NoError(err)
	s.False(p.IsSuperAdmin())

	s.profiles.Remove(pid)
	p, err = s.resolver.Resolve(s.ctx, pid)
	s.Error(err)
	s.False(p.IsResolved())
}

func (s *ResolverSuite) TestCountsResolutionsByRole() {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	r := New(s.profiles, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithMetrics(m))
	sat := id.PrincipalID(uuid.New())
	s.profiles.Put(models.Profile{ID: sat, Role: "satgas", VillageID: 1, VillageName: "Desa A"})

	_, err := r.Resolve(s.ctx, sat)
	s.Require().NoError(err)
	_, err = r.Resolve(s.ctx, id.PrincipalID(uuid.New()))
	s.Require().Error(err)
	_, err = r.Resolve(s.ctx, id.PrincipalID{})
	s.Require().Error(err)

	s.InDelta(1, promtest.ToFloat64(m.Resolutions.WithLabelValues(string(models.RoleSatgas))), 0)
	s.InDelta(2, promtest.ToFloat64(m.Resolutions.WithLabelValues(string(models.RoleUnresolved))), 0)
}
