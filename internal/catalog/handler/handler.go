package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siappa/internal/catalog/models"
	"siappa/pkg/platform/httputil"
	"siappa/pkg/requestcontext"
)

// Service defines the reference data reads the handler needs.
type Service interface {
	ListCategories(ctx context.Context, group models.Group) ([]models.Category, error)
	ListVillages(ctx context.Context) ([]models.Village, error)
}

// Handler serves the public reference lists.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/kategori", h.HandleListCategories)
	r.Get("/desa", h.HandleListVillages)
}

// HandleListCategories handles GET /api/kategori[?kelompok=].
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var group models.Group
	if raw := r.URL.Query().Get("kelompok"); raw != "" {
		g, err := models.ParseGroup(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		group = g
	}

	cats, err := h.service.ListCategories(ctx, group)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// HandleListVillages handles GET /api/desa.
func (h *Handler) HandleListVillages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	villages, err := h.service.ListVillages(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list villages",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"villages": villages})
}
