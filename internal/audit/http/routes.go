package audithttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/listora/listora/internal/authn"
	"github.com/listora/listora/internal/role"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes registers the timeline and CSV export endpoints. Both sit
// behind the audit read permission; the export additionally rate limits
// per caller.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(h.guard.Require(role.ResourceAudit, role.PermissionRead))
		gr.Get("/audit", h.handleTimeline)
		gr.With(limiter).Get("/audit/export.csv", h.handleExport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if principal, ok := authn.PrincipalFromContext(r.Context()); ok {
		if user := strings.TrimSpace(principal.UserID); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
