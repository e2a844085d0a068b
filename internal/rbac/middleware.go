package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shiftwise/shiftwise/internal/platform/httpx"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers. The guards are
// the only place outer layers consult the evaluator; the superuser bypass
// lives inside HasPermission and CanAccessTenant, never in handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current principal holds the permission.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrTokenInvalid)
				return
			}
			if !HasPermission(*principal, resource, action) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.Int64("principal_id", principal.ID),
						slog.String("resource", resource),
						slog.String("action", action))
				}
				httpx.RespondError(w, shared.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant ensures the current principal may access the tenant named
// by the given URL parameter.
func (m Middleware) RequireTenant(urlParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrTokenInvalid)
				return
			}
			tenantID := chi.URLParam(r, urlParam)
			if !CanAccessTenant(*principal, tenantID) {
				if m.Logger != nil {
					m.Logger.Warn("tenant access forbidden",
						slog.Int64("principal_id", principal.ID),
						slog.String("tenant", tenantID))
				}
				httpx.RespondError(w, shared.ErrTenantForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
