package reviews

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// Handler serves review submission and moderation.
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
	r.Get("/tools/{id}/reviews", h.approved)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.With(h.rbac.RequirePermission(rbac.PermSubmitReview)).Post("/tools/{id}/reviews", h.submit)

		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.PermModerateReviews))
			r.Get("/reviews", h.queue)
			r.Post("/reviews/{id}/approve", h.approve)
			r.Post("/reviews/{id}/reject", h.reject)
		})
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	toolID, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in SubmitInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rev, err := h.service.Submit(r.Context(), rbac.ActorID(r), toolID, in)
	if err != nil {
		h.respondError(w, "submit review", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rev)
}

func (h *Handler) approved(w http.ResponseWriter, r *http.Request) {
	toolID, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.Approved(r.Context(), toolID)
	if err != nil {
		h.respondError(w, "list tool reviews", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	status, err := ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.Queue(r.Context(), status)
	if err != nil {
		h.respondError(w, "list reviews", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Reject)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor, id uuid.UUID) (Review, error)) {
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rev, err := fn(r.Context(), rbac.ActorID(r), id)
	if err != nil {
		h.respondError(w, "moderate review", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rev)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
