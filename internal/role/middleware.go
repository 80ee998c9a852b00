package role

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listora/listora/internal/authn"
)

// Middleware wires authorization checks into HTTP handlers. Every internal
// error denies: permission checks fail closed.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the caller holds the permission on the resource type in
// the tenant addressed by the route. When the route targets a tenant other
// than the caller's own, only a matching global permission grants access.
func (m Middleware) Require(resourceType ResourceType, permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authn.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			tenantID := chi.URLParam(r, "tenantID")
			if tenantID == "" {
				tenantID = principal.TenantID
			}

			if tenantID != principal.TenantID {
				granted, err := m.Service.HasGlobalPermissionAnyTenant(r.Context(), principal.UserID, resourceType, permission)
				if err != nil {
					m.logError(err)
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				if !granted {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			granted, err := m.Service.HasPermission(r.Context(), principal.UserID, tenantID, Query{
				ResourceType: resourceType,
				Permission:   permission,
				SiteID:       r.URL.Query().Get("siteId"),
			})
			if err != nil {
				m.logError(err)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !granted {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobal ensures the caller holds the permission through a global
// role, regardless of the tenant the route addresses. Used for platform
// operator surfaces like the tenant registry.
func (m Middleware) RequireGlobal(resourceType ResourceType, permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authn.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			granted, err := m.Service.HasGlobalPermissionAnyTenant(r.Context(), principal.UserID, resourceType, permission)
			if err != nil {
				m.logError(err)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !granted {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logError(err error) {
	if m.Logger != nil {
		m.Logger.Error("authorization check", slog.Any("error", err))
	}
}
