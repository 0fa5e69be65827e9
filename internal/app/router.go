package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reviewdesk/reviewdesk/internal/affiliates"
	"github.com/reviewdesk/reviewdesk/internal/categories"
	"github.com/reviewdesk/reviewdesk/internal/comparisons"
	"github.com/reviewdesk/reviewdesk/internal/observability"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/posts"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/reviews"
	"github.com/reviewdesk/reviewdesk/internal/tools"
	"github.com/reviewdesk/reviewdesk/internal/users"
	"github.com/reviewdesk/reviewdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	RBACHandler       *rbac.Handler
	UsersHandler      *users.Handler
	CategoriesHandler *categories.Handler
	ToolsHandler      *tools.Handler
	PostsHandler      *posts.Handler
	ComparisonHandler *comparisons.Handler
	ReviewsHandler    *reviews.Handler
	AffiliateHandler  *affiliates.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.RBACHandler != nil {
			params.RBACHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
		if params.CategoriesHandler != nil {
			params.CategoriesHandler.MountRoutes(r)
		}
		if params.ToolsHandler != nil {
			params.ToolsHandler.MountRoutes(r)
		}
		if params.PostsHandler != nil {
			params.PostsHandler.MountRoutes(r)
		}
		if params.ComparisonHandler != nil {
			params.ComparisonHandler.MountRoutes(r)
		}
		if params.ReviewsHandler != nil {
			params.ReviewsHandler.MountRoutes(r)
		}
		if params.AffiliateHandler != nil {
			params.AffiliateHandler.MountRoutes(r)
		}
	})

	if params.AffiliateHandler != nil {
		params.AffiliateHandler.MountRedirect(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
