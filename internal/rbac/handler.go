package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Handler serves the current-user and RBAC administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes relative to the API root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Get("/me", h.me)

		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(PermManageRoles))
			r.Get("/roles", h.listRoles)
			r.Post("/roles", h.createRole)
			r.Put("/roles/{id}/permissions", h.setRolePermissions)
			r.Get("/permissions", h.listPermissions)
			r.Post("/permissions", h.createPermission)
			r.Get("/role-permissions", h.listRolePermissions)
		})
	})
}

type meResponse struct {
	User        User     `json:"user"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ac, _ := FromContext(r.Context())
	user, _ := UserFromContext(r.Context())
	perms := ac.Permissions
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: user, Role: ac.RoleName, Permissions: perms})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}

type createNamedRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createNamedRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), ActorID(r), req.Name, req.Description)
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

type setRolePermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permissionIds" validate:"max=500"`
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setRolePermissionsRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), ActorID(r), roleID, req.PermissionIDs); err != nil {
		h.respondError(w, "set role permissions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.respondError(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req createNamedRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), ActorID(r), req.Name, req.Description)
	if err != nil {
		h.respondError(w, "create permission", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.ListRolePermissions(r.Context())
	if err != nil {
		h.respondError(w, "list role permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, grants)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// ActorID returns the authenticated user id, or uuid.Nil when anonymous.
func ActorID(r *http.Request) uuid.UUID {
	ac, ok := FromContext(r.Context())
	if !ok {
		return uuid.Nil
	}
	return ac.UserID
}
