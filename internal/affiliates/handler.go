package affiliates

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

const maxUserAgent = 512

// Handler serves affiliate management and the outbound redirect.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers management routes relative to the API root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.Use(h.rbac.RequirePermission(rbac.PermManageAffiliates))
		r.Get("/affiliate/programs", h.listPrograms)
		r.Post("/affiliate/programs", h.createProgram)
		r.Get("/tools/{id}/affiliate-links", h.listLinks)
		r.Post("/tools/{id}/affiliate-links", h.createLink)
	})
}

// MountRedirect registers the public outbound redirect at the site root.
func (h *Handler) MountRedirect(r chi.Router) {
	r.With(h.rbac.Authenticate).Get("/go/{slug}", h.redirect)
}

func (h *Handler) listPrograms(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPrograms(r.Context())
	if err != nil {
		h.respondError(w, "list affiliate programs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createProgram(w http.ResponseWriter, r *http.Request) {
	var in ProgramInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateProgram(r.Context(), in)
	if err != nil {
		h.respondError(w, "create affiliate program", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listLinks(w http.ResponseWriter, r *http.Request) {
	toolID, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListLinks(r.Context(), toolID)
	if err != nil {
		h.respondError(w, "list affiliate links", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	toolID, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in LinkInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateLink(r.Context(), toolID, in)
	if err != nil {
		h.respondError(w, "create affiliate link", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.Resolve(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, "resolve affiliate target", err)
		return
	}
	ua := r.UserAgent()
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}
	if err := h.service.RecordClick(r.Context(), target, rbac.ActorID(r), clientIP(r), ua); err != nil && h.logger != nil {
		h.logger.Error("record affiliate click", slog.String("tool_id", target.ToolID.String()), slog.Any("error", err))
	}
	http.Redirect(w, r, target.TrackingURL, http.StatusFound)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
