package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siappa/internal/cases/models"
	authmw "siappa/internal/identity/middleware"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	audit "siappa/pkg/platform/audit"
	"siappa/pkg/platform/httputil"
	"siappa/pkg/requestcontext"
)

// Service defines the case operations the admin console uses.
type Service interface {
	Create(ctx context.Context, in models.CreateInput) (*models.Case, error)
	Get(ctx context.Context, p identity.Principal, caseID id.CaseID) (*models.Case, error)
	GetByTicket(ctx context.Context, p identity.Principal, code string) (*models.Case, error)
	ListForScope(ctx context.Context, p identity.Principal, filter models.ListFilter) ([]*models.Case, error)
	UpdateStatus(ctx context.Context, p identity.Principal, caseID id.CaseID, update models.StatusUpdate) (*models.Case, error)
	Delete(ctx context.Context, p identity.Principal, caseID id.CaseID) error
	Dashboard(ctx context.Context, p identity.Principal) (*models.Dashboard, error)
	History(ctx context.Context, p identity.Principal, caseID id.CaseID) ([]audit.CaseEvent, error)
}

// Tracker answers anonymous ticket lookups.
type Tracker interface {
	TrackByTicket(ctx context.Context, code string) (*models.PublicCaseView, error)
}

// Handler serves the public report and tracking endpoints and the admin case console.
type Handler struct {
	service Service
	tracker Tracker
	logger  *slog.Logger
}

func New(service Service, tracker Tracker, logger *slog.Logger) *Handler {
	return &Handler{service: service, tracker: tracker, logger: logger}
}

// RegisterPublic mounts the unauthenticated endpoints. limitReport and
// limitTrack wrap intake and tracking; pass nil to leave them unguarded.
func (h *Handler) RegisterPublic(r chi.Router, limitReport, limitTrack func(http.Handler) http.Handler) {
	r.With(orPass(limitReport)).Post("/laporan", h.HandleCreate)
	r.With(orPass(limitTrack)).Get("/laporan/lacak/{ticket}", h.HandleTrack)
}

// RegisterAdmin mounts the console endpoints. The router must already have
// resolved the principal.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/kasus", h.HandleList)
	r.Get("/kasus/stats", h.HandleDashboard)
	r.Get("/kasus/tiket/{ticket}", h.HandleGetByTicket)
	r.Get("/kasus/{id}", h.HandleGet)
	r.Patch("/kasus/{id}/status", h.HandleUpdateStatus)
	r.Delete("/kasus/{id}", h.HandleDelete)
	r.Get("/kasus/{id}/riwayat", h.HandleHistory)
}

// HandleCreate handles POST /api/laporan.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create case",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateCaseResponse{
		ID:         c.ID,
		TicketCode: c.TicketCode,
		Status:     c.Status,
	})
}

// HandleTrack handles GET /api/laporan/lacak/{ticket}.
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	view, err := h.tracker.TrackByTicket(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleList handles GET /api/admin/kasus[?status=&q=].
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter models.ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = st
	}
	filter.Query = r.URL.Query().Get("q")

	cases, err := h.service.ListForScope(ctx, authmw.PrincipalFrom(ctx), filter)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": cases, "total": len(cases)})
}

// HandleDashboard handles GET /api/admin/kasus/stats.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dash, err := h.service.Dashboard(ctx, authmw.PrincipalFrom(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

// HandleGet handles GET /api/admin/kasus/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(ctx, authmw.PrincipalFrom(ctx), caseID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleGetByTicket handles GET /api/admin/kasus/tiket/{ticket}.
func (h *Handler) HandleGetByTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.GetByTicket(ctx, authmw.PrincipalFrom(ctx), chi.URLParam(r, "ticket"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get case by ticket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleUpdateStatus handles PATCH /api/admin/kasus/{id}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.UpdateStatus(ctx, authmw.PrincipalFrom(ctx), caseID, req.toUpdate())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update case status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/admin/kasus/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, authmw.PrincipalFrom(ctx), caseID); err != nil {
		h.writeServiceError(ctx, w, "failed to delete case", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHistory handles GET /api/admin/kasus/{id}/riwayat.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.History(ctx, authmw.PrincipalFrom(ctx), caseID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load case history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func orPass(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw != nil {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}
