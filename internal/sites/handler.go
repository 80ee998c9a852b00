package sites

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/listora/listora/internal/platform/httpx"
	"github.com/listora/listora/internal/role"
)

// Handler exposes site management over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	guard     role.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard role.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		guard:     guard,
	}
}

// MountRoutes registers site routes under a tenant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tenants/{tenantID}/sites", func(r chi.Router) {
		r.With(h.guard.Require(role.ResourceSite, role.PermissionRead)).Get("/", h.list)
		r.With(h.guard.Require(role.ResourceSite, role.PermissionRead)).Get("/{siteID}", h.get)
		r.With(h.guard.Require(role.ResourceSite, role.PermissionCreate)).Post("/", h.create)
		r.With(h.guard.Require(role.ResourceSite, role.PermissionUpdate)).Put("/{siteID}", h.update)
		r.With(h.guard.Require(role.ResourceSite, role.PermissionDelete)).Delete("/{siteID}", h.remove)
	})
}

type createRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Slug   string `json:"slug" validate:"omitempty,max=200"`
	Domain string `json:"domain" validate:"omitempty,fqdn"`
}

type updateRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=200"`
	Slug   *string `json:"slug" validate:"omitempty,max=200"`
	Domain *string `json:"domain" validate:"omitempty,fqdn"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondError(w, "list sites", err)
		return
	}
	if result == nil {
		result = []Site{}
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"sites": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	site, err := h.service.Get(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "siteID"))
	if err != nil {
		h.respondError(w, "get site", err)
		return
	}
	httpx.JSON(w, http.StatusOK, site)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	site, err := h.service.Create(r.Context(), Draft{
		TenantID: chi.URLParam(r, "tenantID"),
		Name:     req.Name,
		Slug:     req.Slug,
		Domain:   req.Domain,
	})
	if err != nil {
		h.respondError(w, "create site", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, site)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	site, err := h.service.Update(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "siteID"), Update{
		Name:   req.Name,
		Slug:   req.Slug,
		Domain: req.Domain,
	})
	if err != nil {
		h.respondError(w, "update site", err)
		return
	}
	httpx.JSON(w, http.StatusOK, site)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "siteID")); err != nil {
		h.respondError(w, "delete site", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "site not found")
	case errors.Is(err, ErrDuplicateSlug):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "slug already in use")
	default:
		if h.logger != nil {
			h.logger.Error(message, slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
