package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes relative to the API root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermManageUsers))
		r.Get("/users", h.listUsers)
		r.Patch("/users/{id}/role", h.changeRole)
		r.Patch("/users/{id}/status", h.setStatus)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.service.ListUsers(r.Context(), ListFilter{Email: q.Get("email"), Role: q.Get("role")})
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

type changeRoleRequest struct {
	RoleID uuid.UUID `json:"roleId" validate:"required"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req changeRoleRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.ChangeRole(r.Context(), rbac.ActorID(r), id, req.RoleID)
	if err != nil {
		h.respondError(w, "change role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type setStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setStatusRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.SetStatus(r.Context(), rbac.ActorID(r), id, *req.IsActive)
	if err != nil {
		h.respondError(w, "set user status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
