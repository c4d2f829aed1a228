package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"siappa/internal/agenda/models"
	authmw "siappa/internal/identity/middleware"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	"siappa/pkg/platform/httputil"
	"siappa/pkg/requestcontext"
)

type Service interface {
	ListPublic(ctx context.Context) ([]*models.Item, error)
	ListForScope(ctx context.Context, p identity.Principal) ([]*models.Item, error)
	Create(ctx context.Context, p identity.Principal, in models.Input) (*models.Item, error)
	Update(ctx context.Context, p identity.Principal, agendaID id.AgendaID, in models.Input) (*models.Item, error)
	Delete(ctx context.Context, p identity.Principal, agendaID id.AgendaID) error
}

// ItemRequest is the body of agenda create and update calls.
type ItemRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Kind        string    `json:"kind" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=5000"`
	PosterURL   string    `json:"poster_url" validate:"omitempty,url,max=2048"`
	VillageID   int       `json:"village_id" validate:"gte=0"`

	kind models.Kind
}

func (r *ItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
	r.PosterURL = strings.TrimSpace(r.PosterURL)
}

func (r *ItemRequest) Validate() error {
	k, err := models.ParseKind(r.Kind)
	if err != nil {
		return err
	}
	r.kind = k
	return nil
}

func (r *ItemRequest) toInput() models.Input {
	return models.Input{
		Title:       r.Title,
		Kind:        r.kind,
		ScheduledAt: r.ScheduledAt,
		Location:    r.Location,
		Description: r.Description,
		PosterURL:   r.PosterURL,
		VillageID:   id.VillageID(r.VillageID),
	}
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts GET /agenda.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/agenda", h.HandleListPublic)
}

// RegisterAdmin mounts the agenda editor endpoints behind principal resolution.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/agenda", h.HandleListAdmin)
	r.Post("/agenda", h.HandleCreate)
	r.Put("/agenda/{id}", h.HandleUpdate)
	r.Delete("/agenda/{id}", h.HandleDelete)
}

func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPublic(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "failed to list agenda", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"agenda": items})
}

func (h *Handler) HandleListAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.service.ListForScope(ctx, authmw.PrincipalFrom(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to list agenda", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"agenda": items})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.service.Create(ctx, authmw.PrincipalFrom(ctx), req.toInput())
	if err != nil {
		h.writeError(ctx, w, "failed to create agenda item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agendaID, err := id.ParseAgendaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ItemRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	item, err := h.service.Update(ctx, authmw.PrincipalFrom(ctx), agendaID, req.toInput())
	if err != nil {
		h.writeError(ctx, w, "failed to update agenda item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agendaID, err := id.ParseAgendaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, authmw.PrincipalFrom(ctx), agendaID); err != nil {
		h.writeError(ctx, w, "failed to delete agenda item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
