// Package httptransport assembles the chi router: shared middleware, the
// public intake and tracking surface, and the authenticated admin console API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	agendahandler "siappa/internal/agenda/handler"
	caseshandler "siappa/internal/cases/handler"
	cataloghandler "siappa/internal/catalog/handler"
	authmw "siappa/internal/identity/middleware"
	"siappa/internal/platform/metrics"
	ratelimit "siappa/internal/ratelimit/middleware"
	rlmodels "siappa/internal/ratelimit/models"
	"siappa/pkg/platform/httputil"
	"siappa/pkg/platform/middleware/metadata"
	request "siappa/pkg/platform/middleware/request"
	"siappa/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the handlers and middleware the router mounts. Metrics,
// RateLimit, ClientIPs and Health may be nil. A nil ClientIPs keys callers on
// the socket peer only.
type Dependencies struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration

	Catalog *cataloghandler.Handler
	Cases   *caseshandler.Handler
	Agenda  *agendahandler.Handler

	Tokens   authmw.TokenValidator
	Resolver authmw.Resolver

	RateLimit *ratelimit.Middleware
	ClientIPs *metadata.IPResolver
	Metrics   *metrics.Metrics
	Health    map[string]HealthCheck
}

func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	if d.ClientIPs != nil {
		r.Use(d.ClientIPs.Middleware)
	} else {
		r.Use(metadata.ClientMetadata)
	}
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Recovery(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", healthHandler(d.Health, d.Logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(request.ContentTypeJSON)

		var limitReport, limitTrack func(http.Handler) http.Handler
		if d.RateLimit != nil {
			limitReport = d.RateLimit.RateLimit(rlmodels.ClassReport)
			limitTrack = d.RateLimit.RateLimit(rlmodels.ClassTrack)
		}
		d.Catalog.Register(r)
		d.Cases.RegisterPublic(r, limitReport, limitTrack)
		d.Agenda.RegisterPublic(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireAuth(d.Tokens, d.Logger))
			r.Use(authmw.RequirePrincipal(d.Resolver, d.Logger))
			d.Cases.RegisterAdmin(r)
			d.Agenda.RegisterAdmin(r)
		})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				report[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       http.StatusText(status),
			"dependencies": report,
		})
	}
}
