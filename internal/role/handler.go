package role

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/listora/listora/internal/platform/httpx"
)

// Handler exposes the role engine over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	guard     Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		guard:     guard,
	}
}

// MountRoutes registers role management and access check routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tenants/{tenantID}/roles", func(r chi.Router) {
		r.With(h.guard.Require(ResourceRole, PermissionRead)).Get("/", h.listRoles)
		r.With(h.guard.Require(ResourceRole, PermissionCreate)).Post("/", h.createRole)
		r.With(h.guard.Require(ResourceRole, PermissionCreate)).Post("/predefined", h.createPredefinedRole)
		r.With(h.guard.Require(ResourceRole, PermissionRead)).Get("/{roleID}", h.getRole)
		r.With(h.guard.Require(ResourceRole, PermissionUpdate)).Put("/{roleID}", h.updateRole)
		r.With(h.guard.Require(ResourceRole, PermissionDelete)).Delete("/{roleID}", h.deleteRole)
	})
	r.Route("/tenants/{tenantID}/users/{userID}/roles", func(r chi.Router) {
		r.With(h.guard.Require(ResourceUser, PermissionRead)).Get("/", h.listUserRoles)
		r.With(h.guard.Require(ResourceRole, PermissionManage)).Put("/{roleID}", h.assignRole)
		r.With(h.guard.Require(ResourceRole, PermissionManage)).Delete("/{roleID}", h.removeRole)
	})
	r.Route("/tenants/{tenantID}/access", func(r chi.Router) {
		r.Post("/check", h.checkAccess)
		r.Get("/resources", h.accessibleResources)
	})
	r.With(h.guard.Require(ResourceRole, PermissionRead)).Get("/roles/global", h.listGlobalRoles)
}

type roleRequest struct {
	Name        string     `json:"name" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=1000"`
	IsGlobal    bool       `json:"isGlobal"`
	ACLEntries  []ACLEntry `json:"aclEntries"`
}

type roleUpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	IsGlobal    *bool      `json:"isGlobal"`
	ACLEntries  []ACLEntry `json:"aclEntries"`
}

type predefinedRoleRequest struct {
	Name   string `json:"name" validate:"required"`
	SiteID string `json:"siteId"`
}

type checkAccessRequest struct {
	UserID       string `json:"userId" validate:"required"`
	ResourceType string `json:"resourceType" validate:"required"`
	Permission   string `json:"permission" validate:"required"`
	ResourceID   string `json:"resourceId"`
	SiteID       string `json:"siteId"`
	GlobalOnly   bool   `json:"globalOnly"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	includeGlobal := true
	if raw := r.URL.Query().Get("includeGlobal"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "includeGlobal must be a boolean")
			return
		}
		includeGlobal = parsed
	}

	roles, err := h.service.RolesByTenant(r.Context(), tenantID, includeGlobal)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) listGlobalRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.GlobalRoles(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.CreateRole(r.Context(), Draft{
		Name:        req.Name,
		Description: req.Description,
		TenantID:    chi.URLParam(r, "tenantID"),
		IsGlobal:    req.IsGlobal,
		ACLEntries:  req.ACLEntries,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) createPredefinedRole(w http.ResponseWriter, r *http.Request) {
	var req predefinedRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.CreatePredefinedRole(r.Context(), chi.URLParam(r, "tenantID"), req.Name, req.SiteID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetRole(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, found)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req roleUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "roleID"), Update{
		Name:        req.Name,
		Description: req.Description,
		IsGlobal:    req.IsGlobal,
		ACLEntries:  req.ACLEntries,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "roleID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.UserRoles(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.AssignRoleToUser(r.Context(),
		chi.URLParam(r, "userID"), chi.URLParam(r, "tenantID"), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRoleFromUser(r.Context(),
		chi.URLParam(r, "userID"), chi.URLParam(r, "tenantID"), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	var req checkAccessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resourceType := ResourceType(req.ResourceType)
	permission := Permission(req.Permission)
	if !resourceType.Valid() || !permission.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown resource type or permission")
		return
	}

	var granted bool
	var err error
	if req.GlobalOnly {
		granted, err = h.service.HasGlobalPermissionAnyTenant(r.Context(), req.UserID, resourceType, permission)
	} else {
		granted, err = h.service.HasPermission(r.Context(), req.UserID, chi.URLParam(r, "tenantID"), Query{
			ResourceType: resourceType,
			Permission:   permission,
			ResourceID:   req.ResourceID,
			SiteID:       req.SiteID,
		})
	}
	if err != nil {
		// Fail closed: the caller learns only that access is denied.
		h.logError(r, err)
		granted = false
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"granted": granted})
}

func (h *Handler) accessibleResources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resourceType := ResourceType(query.Get("type"))
	permission := Permission(query.Get("permission"))
	if !resourceType.Valid() || !permission.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown resource type or permission")
		return
	}
	userID := query.Get("userId")
	if userID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId is required")
		return
	}

	ids, err := h.service.AccessibleResources(r.Context(),
		userID, chi.URLParam(r, "tenantID"), resourceType, permission, query.Get("siteId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"resourceIds": ids,
		"unbounded":   len(ids) == 1 && ids[0] == Wildcard,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNameTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrGlobalFlagImmutable),
		errors.Is(err, ErrNotSystemTenant),
		errors.Is(err, ErrSiteIDRequired),
		errors.Is(err, ErrUnknownTemplate),
		errors.Is(err, ErrInvalidDraft):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logError(r, err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) logError(r *http.Request, err error) {
	if h.logger != nil {
		h.logger.Error("role handler", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}
