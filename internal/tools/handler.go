package tools

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Handler serves the tool endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes relative to the API root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authenticate).Get("/tools", h.list)
	r.With(h.rbac.Authenticate).Get("/tools/{slug}", h.show)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.With(h.rbac.RequirePermission(rbac.PermManageTools)).Post("/tools", h.create)
		r.With(h.rbac.RequirePermission(rbac.PermManageTools)).Patch("/tools/{id}", h.update)
		r.With(h.rbac.RequirePermission(rbac.PermPublishTools)).Post("/tools/{id}/publish", h.publish)
		r.With(h.rbac.RequirePermission(rbac.PermPublishTools)).Post("/tools/{id}/unpublish", h.unpublish)
	})
}

// scope reads ?status= and requires manage_tools for anything beyond published.
func (h *Handler) scope(r *http.Request) (shared.ListScope, error) {
	scope, err := shared.ParseListScope(r.URL.Query().Get("status"))
	if err != nil {
		return "", err
	}
	if scope != shared.ScopePublished {
		if err := h.rbac.Authorize(r, rbac.PermManageTools); err != nil {
			return "", err
		}
	}
	return scope, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	items, err := h.service.List(r.Context(), ListFilter{Query: q.Get("q"), Category: q.Get("category"), Scope: scope})
	if err != nil {
		h.respondError(w, "list tools", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), scope)
	if err != nil {
		h.respondError(w, "get tool", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), rbac.ActorID(r), in)
	if err != nil {
		h.respondError(w, "create tool", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch Patch
	if err := httpx.Bind(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, "update tool", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Unpublish)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (Tool, error)) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tool, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, "change tool status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tool)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
