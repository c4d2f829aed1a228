package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siappa/internal/catalog/models"
	"siappa/internal/catalog/service"
	"siappa/internal/catalog/store"
	"siappa/pkg/testutil"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	svc := service.New(store.NewSeededInMemory())
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleListCategories(t *testing.T) {
	router := newRouter()

	t.Run("filters by kelompok", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/kategori?kelompok=anak", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.UnmarshalResponse[struct {
			Categories []models.Category `json:"categories"`
		}](t, rr)
		require.NotEmpty(t, body.Categories)
		for _, c := range body.Categories {
			assert.Equal(t, models.GroupAnak, c.Group)
		}
	})

	t.Run("rejects unknown kelompok", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/kategori?kelompok=lansia", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleListVillages(t *testing.T) {
	rr := testutil.DoRequest(newRouter(), testutil.NewJSONRequest(t, http.MethodGet, "/desa", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := testutil.UnmarshalResponse[struct {
		Villages []models.Village `json:"villages"`
	}](t, rr)
	assert.Len(t, body.Villages, len(models.DefaultVillages()))
}
