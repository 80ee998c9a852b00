package tenants

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/listora/listora/internal/platform/httpx"
	"github.com/listora/listora/internal/role"
)

// Handler exposes the tenant registry over JSON.
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

// MountRoutes registers tenant registry routes. Registry access is a
// platform operator concern, so every route demands the tenant permission
// globally.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.requireGlobal(role.PermissionRead)).Get("/tenants", h.list)
	r.With(h.requireGlobal(role.PermissionCreate)).Post("/tenants", h.register)
	r.With(h.guard.Require(role.ResourceTenant, role.PermissionRead)).
		Get("/tenants/{tenantID}", h.get)
}

func (h *Handler) requireGlobal(permission role.Permission) func(http.Handler) http.Handler {
	return h.guard.RequireGlobal(role.ResourceTenant, permission)
}

type registerRequest struct {
	ID   string `json:"id" validate:"required,max=63"`
	Name string `json:"name" validate:"required,max=200"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list tenants", err)
		return
	}
	if result == nil {
		result = []Tenant{}
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"tenants": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.service.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondError(w, "get tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenant)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tenant, err := h.service.Register(r.Context(), req.ID, req.Name)
	if err != nil {
		h.respondError(w, "register tenant", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tenant)
}

func (h *Handler) respondError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "tenant not found")
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "tenant id already registered")
	case errors.Is(err, ErrInvalidID):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error(message, slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
