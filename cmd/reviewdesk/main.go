package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/reviewdesk/reviewdesk/internal/affiliates"
	"github.com/reviewdesk/reviewdesk/internal/app"
	"github.com/reviewdesk/reviewdesk/internal/categories"
	"github.com/reviewdesk/reviewdesk/internal/comparisons"
	"github.com/reviewdesk/reviewdesk/internal/identity"
	"github.com/reviewdesk/reviewdesk/internal/observability"
	"github.com/reviewdesk/reviewdesk/internal/platform/cache"
	"github.com/reviewdesk/reviewdesk/internal/platform/db"
	"github.com/reviewdesk/reviewdesk/internal/posts"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/reviews"
	"github.com/reviewdesk/reviewdesk/internal/shared"
	"github.com/reviewdesk/reviewdesk/internal/tools"
	"github.com/reviewdesk/reviewdesk/internal/users"
	"github.com/reviewdesk/reviewdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacRepo := rbac.NewRepository(dbpool)
	if err := rbac.VerifySeed(ctx, rbacRepo); err != nil {
		logger.Error("verify rbac seed", slog.Any("error", err))
		os.Exit(1)
	}

	authenticator, err := newAuthenticator(cfg, redisClient)
	if err != nil {
		logger.Error("init authenticator", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	rbacMiddleware := rbac.Middleware{
		Authenticator: authenticator,
		Binder: rbac.NewBinder(rbacRepo, auditLogger, logger, rbac.BinderConfig{
			BootstrapEnabled: cfg.RBACBootstrapEnabled,
			SuperadminEmails: cfg.BootstrapAllowList(),
		}),
		Resolver: rbac.NewResolver(rbacRepo),
		Logger:   logger,
	}
	rbacHandler := rbac.NewHandler(logger, rbac.NewService(rbacRepo, auditLogger), rbacMiddleware)

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)), rbacMiddleware)
	targets := cache.NewVersioned(redisClient, "affiliates", cfg.RedirectCacheTTL)
	toolsHandler := tools.NewHandler(logger, tools.NewService(tools.NewRepository(dbpool)).WithInvalidator(targets, logger), rbacMiddleware)
	postsHandler := posts.NewHandler(logger, posts.NewService(posts.NewRepository(dbpool)), rbacMiddleware)
	comparisonHandler := comparisons.NewHandler(logger, comparisons.NewService(comparisons.NewRepository(dbpool)), rbacMiddleware)
	reviewsHandler := reviews.NewHandler(logger, reviews.NewService(reviews.NewRepository(dbpool), auditLogger), rbacMiddleware)

	affiliateHandler := affiliates.NewHandler(logger, affiliates.NewService(affiliates.NewRepository(dbpool), targets).WithLogger(logger), rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           observability.NewMetrics(),
		RBACHandler:       rbacHandler,
		UsersHandler:      usersHandler,
		CategoriesHandler: categoriesHandler,
		ToolsHandler:      toolsHandler,
		PostsHandler:      postsHandler,
		ComparisonHandler: comparisonHandler,
		ReviewsHandler:    reviewsHandler,
		AffiliateHandler:  affiliateHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("auth_mode", cfg.AuthMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newAuthenticator(cfg *app.Config, client *redis.Client) (identity.Authenticator, error) {
	if cfg.AuthMode == app.AuthModeSession {
		return identity.NewSessionAuthenticator(client, cfg.AuthCookieName), nil
	}
	return identity.NewTokenAuthenticator(cfg.AuthCookieName, cfg.AuthTokenSecret, cfg.AuthTokenIssuer)
}
