package posts

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

// Handler serves the post and tag endpoints.
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
	r.Get("/tags", h.listTags)
	r.With(h.rbac.Authenticate).Get("/posts", h.list)
	r.With(h.rbac.Authenticate).Get("/posts/{slug}", h.show)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.PermManagePosts))
			r.Post("/tags", h.createTag)
			r.Post("/posts", h.create)
			r.Patch("/posts/{id}", h.update)
			r.Post("/posts/{id}/tags", h.attachTags)
			r.Post("/posts/{id}/tools", h.replaceTools)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.PermPublishPosts))
			r.Post("/posts/{id}/publish", h.publish)
			r.Post("/posts/{id}/unpublish", h.unpublish)
		})
	})
}

func (h *Handler) scope(r *http.Request) (shared.ListScope, error) {
	scope, err := shared.ParseListScope(r.URL.Query().Get("status"))
	if err != nil {
		return "", err
	}
	if scope != shared.ScopePublished {
		if err := h.rbac.Authorize(r, rbac.PermManagePosts); err != nil {
			return "", err
		}
	}
	return scope, nil
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		h.respondError(w, "list tags", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tags)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var in TagInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tag, err := h.service.CreateTag(r.Context(), in)
	if err != nil {
		h.respondError(w, "create tag", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tag)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	page, err := h.service.List(r.Context(), ListFilter{
		Type:  q.Get("type"),
		Tag:   q.Get("tag"),
		Query: q.Get("q"),
		Page:  httpx.IntQuery(r, "page", 1),
		Scope: scope,
	})
	if err != nil {
		h.respondError(w, "list posts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), scope)
	if err != nil {
		h.respondError(w, "get post", err)
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
	post, err := h.service.Create(r.Context(), rbac.ActorID(r), in)
	if err != nil {
		h.respondError(w, "create post", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
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
	post, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, "update post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Unpublish)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (Post, error)) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	post, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, "change post status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

type attachTagsRequest struct {
	TagIDs []uuid.UUID `json:"tagIds" validate:"max=100"`
}

func (h *Handler) attachTags(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req attachTagsRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AttachTags(r.Context(), id, req.TagIDs); err != nil {
		h.respondError(w, "attach tags", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type replaceToolsRequest struct {
	Tools []ToolLink `json:"tools" validate:"max=100,dive"`
}

func (h *Handler) replaceTools(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req replaceToolsRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ReplaceTools(r.Context(), id, req.Tools); err != nil {
		h.respondError(w, "replace post tools", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
