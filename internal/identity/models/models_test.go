package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

func TestNewPrincipal(t *testing.T) {
	pid := id.PrincipalID(uuid.New())

	t.Run("kecamatan sees everything", func(t *testing.T) {
		p, err := NewPrincipal(Profile{ID: pid, Role: "kecamatan"})
		require.NoError(t, err)
		assert.True(t, p.IsSuperAdmin())
		assert.True(t, p.Scope().IsAll())
		assert.True(t, p.Scope().Permits(id.VillageID(42)))
	})

	t.Run("satgas is bound to home village", func(t *testing.T) {
		p, err := NewPrincipal(Profile{ID: pid, Role: "satgas", VillageID: 1, VillageName: "Desa A"})
		require.NoError(t, err)
		assert.False(t, p.IsSuperAdmin())
		v, ok := p.Scope().Village()
		require.True(t, ok)
		assert.Equal(t, id.VillageID(1), v)
		assert.True(t, p.Scope().Permits(1))
		assert.False(t, p.Scope().Permits(2))
	})

	t.Run("satgas without village is unresolved", func(t *testing.T) {
		p, err := NewPrincipal(Profile{ID: pid, Role: "satgas"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, RoleUnresolved, p.Role)
		assert.True(t, p.Scope().IsNone())
	})

	t.Run("kecamatan bound to a village is rejected", func(t *testing.T) {
		_, err := NewPrincipal(Profile{ID: pid, Role: "kecamatan", VillageID: 1, VillageName: "Desa A"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown role never defaults to kecamatan", func(t *testing.T) {
		p, err := NewPrincipal(Profile{ID: pid, Role: "admin"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.False(t, p.IsSuperAdmin())
		assert.False(t, p.Scope().Permits(1))
	})
}

func TestUnresolvedDeniesAll(t *testing.T) {
	p := Unresolved(id.PrincipalID(uuid.New()))
	assert.False(t, p.IsResolved())
	assert.True(t, dErrors.HasCode(p.RequireResolved(), dErrors.CodeForbidden))
	for v := id.VillageID(0); v < 10; v++ {
		assert.False(t, p.Scope().Permits(v))
	}
}

func TestScopeZeroValueDenies(t *testing.T) {
	var s Scope
	assert.True(t, s.IsNone())
	assert.False(t, s.Permits(1))
	assert.Equal(t, "none", s.String())
	assert.Equal(t, "village:3", ScopeVillage(3).String())
}
