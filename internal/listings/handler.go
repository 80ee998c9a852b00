package listings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/listora/listora/internal/authn"
	"github.com/listora/listora/internal/platform/httpx"
	"github.com/listora/listora/internal/role"
)

// Handler exposes listing management over JSON.
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

// MountRoutes registers listing routes under a tenant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tenants/{tenantID}/listings", func(r chi.Router) {
		r.With(h.guard.Require(role.ResourceListing, role.PermissionRead)).Get("/", h.list)
		r.With(h.guard.Require(role.ResourceListing, role.PermissionRead)).Get("/{listingID}", h.get)
		r.With(h.guard.Require(role.ResourceListing, role.PermissionCreate)).Post("/", h.create)
		r.With(h.guard.Require(role.ResourceListing, role.PermissionUpdate)).Put("/{listingID}", h.update)
		r.With(h.guard.Require(role.ResourceListing, role.PermissionDelete)).Delete("/{listingID}", h.remove)
	})
}

type createRequest struct {
	SiteID      string `json:"siteId" validate:"required,max=120"`
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Category    string `json:"category" validate:"max=120"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type updateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Slug        *string `json:"slug" validate:"omitempty,max=200"`
	Category    *string `json:"category" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := authn.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	filters := ListFilters{
		SiteID:   r.URL.Query().Get("siteId"),
		Status:   Status(r.URL.Query().Get("status")),
		Category: r.URL.Query().Get("category"),
	}
	result, err := h.service.ListVisible(r.Context(), principal.UserID, tenantID, filters)
	if err != nil {
		h.respondError(w, "list listings", err)
		return
	}
	if result == nil {
		result = []Listing{}
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"listings": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "listingID"))
	if err != nil {
		h.respondError(w, "get listing", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
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
	listing, err := h.service.Create(r.Context(), Draft{
		TenantID:    chi.URLParam(r, "tenantID"),
		SiteID:      req.SiteID,
		Title:       req.Title,
		Slug:        req.Slug,
		Category:    req.Category,
		Description: req.Description,
		Status:      Status(req.Status),
	})
	if err != nil {
		h.respondError(w, "create listing", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, listing)
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
	update := Update{
		Title:       req.Title,
		Slug:        req.Slug,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		update.Status = &status
	}
	listing, err := h.service.Update(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "listingID"), update)
	if err != nil {
		h.respondError(w, "update listing", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "listingID")); err != nil {
		h.respondError(w, "delete listing", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "listing not found")
	case errors.Is(err, ErrDuplicateSlug):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "slug already in use for this site")
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid status")
	default:
		if h.logger != nil {
			h.logger.Error(message, slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
