package comparisons

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

// Handler serves the comparison endpoints.
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
	r.With(h.rbac.Authenticate).Get("/comparisons", h.list)
	r.Get("/comparisons/{slug}", h.show)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermManageComparisons))
		r.Post("/comparisons", h.create)
		r.Patch("/comparisons/{id}", h.update)
		r.Post("/comparisons/{id}/publish", h.publish)
		r.Post("/comparisons/{id}/unpublish", h.unpublish)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ParseListScope(r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if scope != shared.ScopePublished {
		if err := h.rbac.Authorize(r, rbac.PermManageComparisons); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	items, err := h.service.List(r.Context(), scope)
	if err != nil {
		h.respondError(w, "list comparisons", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, "get comparison", err)
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
		h.respondError(w, "create comparison", err)
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
		h.respondError(w, "update comparison", err)
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

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (Comparison, error)) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, "change comparison status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
