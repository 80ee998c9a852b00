package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/listora/listora/internal/audit/http"
	"github.com/listora/listora/internal/authn"
	"github.com/listora/listora/internal/listings"
	"github.com/listora/listora/internal/role"
	"github.com/listora/listora/internal/sites"
	"github.com/listora/listora/internal/tenants"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Auth            authn.Middleware
	RoleHandler     *role.Handler
	AuditHandler    *audithttp.Handler
	ListingsHandler *listings.Handler
	SitesHandler    *sites.Handler
	TenantsHandler  *tenants.Handler
}

// NewRouter constructs the chi.Router with Listora defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(params.Auth.Authenticate)

		if params.RoleHandler != nil {
			params.RoleHandler.MountRoutes(r)
		}
		if params.TenantsHandler != nil {
			params.TenantsHandler.MountRoutes(r)
		}
		if params.SitesHandler != nil {
			params.SitesHandler.MountRoutes(r)
		}
		if params.ListingsHandler != nil {
			params.ListingsHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
	})

	return r
}
