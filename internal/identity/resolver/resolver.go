// Package resolver turns an authenticated principal ID into a role and scope.
//
// The profile is fetched on every call. There is no cache that could serve a
// stale role, and any failure yields the Unresolved principal.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"siappa/internal/identity/metrics"
	"siappa/internal/identity/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/requestcontext"
)

// ProfileStore is the read port onto the authentication service's profiles.
type ProfileStore interface {
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Profile, error)
}

// Resolver resolves principals.
type Resolver struct {
	profiles ProfileStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func New(profiles ProfileStore, opts ...Option) *Resolver {
	r := &Resolver{profiles: profiles, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the confirmed principal, or Unresolved with a forbidden error.
func (r *Resolver) Resolve(ctx context.Context, principalID id.PrincipalID) (models.Principal, error) {
	if principalID.IsNil() {
		r.observe(models.RoleUnresolved)
		return models.Unresolved(principalID), dErrors.New(dErrors.CodeForbidden, "principal could not be resolved")
	}

	profile, err := r.profiles.FindByID(ctx, principalID)
	if err != nil {
		r.observe(models.RoleUnresolved)
		if errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "principal has no profile",
				"request_id", requestcontext.RequestID(ctx),
				"principal_id", principalID.String(),
			)
		} else {
			r.logger.ErrorContext(ctx, "failed to fetch principal profile",
				"request_id", requestcontext.RequestID(ctx),
				"principal_id", principalID.String(),
				"error", err,
			)
		}
		return models.Unresolved(principalID), dErrors.Wrap(err, dErrors.CodeForbidden, "principal could not be resolved")
	}

	principal, err := models.NewPrincipal(*profile)
	if err != nil {
		r.observe(models.RoleUnresolved)
		r.logger.WarnContext(ctx, "principal profile is inconsistent",
			"request_id", requestcontext.RequestID(ctx),
			"principal_id", principalID.String(),
			"error", err,
		)
		return principal, err
	}

	r.observe(principal.Role)
	return principal, nil
}

func (r *Resolver) observe(role models.Role) {
	if r.metrics != nil {
		r.metrics.IncrementResolution(string(role))
	}
}
