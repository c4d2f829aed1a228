package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siappa/internal/identity/models"
	"siappa/internal/identity/resolver"
	"siappa/internal/identity/store"
	"siappa/internal/identity/token"
	id "siappa/pkg/domain"
	"siappa/pkg/testutil"
)

type fixture struct {
	validator *token.Validator
	profiles  *store.InMemory
	handler   http.Handler
	seen      *models.Principal
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		validator: token.NewValidator("k", ""),
		profiles:  store.NewInMemory(),
	}
	res := resolver.New(f.profiles, resolver.WithLogger(logger))
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		f.seen = &p
		w.WriteHeader(http.StatusNoContent)
	})
	f.handler = RequireAuth(f.validator, logger)(RequirePrincipal(res, logger)(inner))
	return f
}

func (f *fixture) request(t *testing.T, pid id.PrincipalID) *http.Request {
	tok, err := f.validator.Issue(pid, time.Hour)
	require.NoError(t, err)
	r := testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/kasus", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	return r
}

func TestRequireAuth_MissingToken(t *testing.T) {
	f := newFixture()
	rr := testutil.DoRequest(f.handler, testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/kasus", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRequireAuth_BadToken(t *testing.T) {
	f := newFixture()
	r := testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/kasus", nil)
	r.Header.Set("Authorization", "Bearer nope")
	testutil.AssertStatusAndError(t, testutil.DoRequest(f.handler, r), http.StatusUnauthorized, "unauthorized")
}

func TestRequirePrincipal_ResolvedSatgas(t *testing.T) {
	f := newFixture()
	pid := id.PrincipalID(uuid.New())
	f.profiles.Put(models.Profile{ID: pid, Role: "satgas", VillageID: 2, VillageName: "Desa B"})

	rr := testutil.DoRequest(f.handler, f.request(t, pid))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, id.VillageID(2), f.seen.HomeVillageID)
}

func TestRequirePrincipal_UnknownProfileIsForbidden(t *testing.T) {
	f := newFixture()
	rr := testutil.DoRequest(f.handler, f.request(t, id.PrincipalID(uuid.New())))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	assert.Nil(t, f.seen)
}

func TestPrincipalFrom_DefaultsToUnresolved(t *testing.T) {
	r := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	p := PrincipalFrom(r.Context())
	assert.False(t, p.IsResolved())
}
