// Package middleware authenticates admin requests and attaches the resolved principal.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"siappa/internal/identity/models"
	"siappa/internal/identity/token"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/httputil"
	"siappa/pkg/requestcontext"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// Resolver maps a principal ID to a confirmed principal.
type Resolver interface {
	Resolve(ctx context.Context, principalID id.PrincipalID) (models.Principal, error)
}

type principalKey struct{}

// WithPrincipal stores a resolved principal in ctx.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal set by RequirePrincipal, or Unresolved.
func PrincipalFrom(ctx context.Context) models.Principal {
	if p, ok := ctx.Value(principalKey{}).(models.Principal); ok {
		return p
	}
	return models.Unresolved(requestcontext.PrincipalID(ctx))
}

// RequireAuth validates the bearer token and stores the principal ID.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(raw))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			principalID, err := claims.PrincipalID()
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipalID(ctx, principalID)))
		})
	}
}

// RequirePrincipal resolves the authenticated ID into a principal. Anything
// short of a confirmed role is answered with 403.
func RequirePrincipal(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, err := resolver.Resolve(ctx, requestcontext.PrincipalID(ctx))
			if err == nil {
				err = principal.RequireResolved()
			}
			if err != nil {
				logger.WarnContext(ctx, "access denied - principal unresolved",
					"request_id", requestcontext.RequestID(ctx),
					"principal_id", principal.ID.String(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
