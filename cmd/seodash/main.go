// Package main is the entrypoint for the SEODash server: the websites API and
// the dashboard that consumes it.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/seodash/seodash/internal/apiclient"
	"github.com/seodash/seodash/internal/audit"
	"github.com/seodash/seodash/internal/cache"
	"github.com/seodash/seodash/internal/config"
	"github.com/seodash/seodash/internal/dashboard"
	"github.com/seodash/seodash/internal/handler"
	"github.com/seodash/seodash/internal/metrics"
	"github.com/seodash/seodash/internal/middleware"
	"github.com/seodash/seodash/internal/repository"
	"github.com/seodash/seodash/internal/server"
	"github.com/seodash/seodash/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Websites and metrics (pgx)
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return err
	}
	logger.Info("connected to database")

	// Audit results (database/sql + lib/pq)
	auditDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		repo.Close()
		return err
	}
	auditDB.SetMaxOpenConns(5)
	auditDB.SetConnMaxIdleTime(5 * time.Minute)
	auditStore := audit.NewStore(auditDB)

	// Metrics cache and audit rate limit (Redis)
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		_ = auditDB.Close()
		repo.Close()
		return err
	}
	logger.Info("connected to Redis")

	// Services
	recorder := metrics.NewInMemory()
	auditHTTP := audit.NewHTTPClient()
	runner := audit.NewRunner(
		audit.NewPageSpeedClient(cfg.PageSpeedEndpoint, cfg.PageSpeedAPIKey, auditHTTP),
		audit.NewPageChecker(auditHTTP),
		logger,
	)
	websiteService := service.NewWebsiteService(repo, cacheClient, runner, auditStore, recorder, logger, service.Options{
		MetricsCacheTTL:  cfg.MetricsCacheTTL,
		DefaultDays:      cfg.DefaultMetricsDays,
		AuditRatePerHour: cfg.AuditRatePerHour,
	})

	// Dashboard
	api, err := apiclient.New(cfg.GetAPIBaseURL(), nil)
	if err != nil {
		return err
	}
	notifier := dashboard.NewNotifier(cfg.NotificationTTL)
	page := dashboard.NewPage(notifier, cfg.DefaultMetricsDays)
	controller := dashboard.NewController(api, page, dashboard.NewSVGRenderer(), logger, cfg.DefaultMetricsDays)
	templates, err := dashboard.ParseTemplates()
	if err != nil {
		return err
	}

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(
		handler.Dependency{Name: "postgres", Checker: repo},
		handler.Dependency{Name: "audit_store", Checker: auditStore},
		handler.Dependency{Name: "redis", Checker: cacheClient},
	)
	metricsHandler := handler.NewMetricsHandler(recorder)
	websiteHandler := handler.NewWebsiteHandler(websiteService, logger)
	dashboardHandler := handler.NewDashboardHandler(controller, page, templates, logger)

	r := setupRouter(h, healthHandler, metricsHandler, websiteHandler, dashboardHandler, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Closed in reverse order.
	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("audit_store", func(context.Context) error {
		return auditDB.Close()
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("dashboard", func(context.Context) error {
		controller.Close()
		notifier.Close()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"api_base_url", redactURL(cfg.GetAPIBaseURL()),
		"env", cfg.AppEnv,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	websiteHandler *handler.WebsiteHandler,
	dashboardHandler *handler.DashboardHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, "/dashboard/notifications", "/healthz", "/readyz", "/metrics"))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	apiSecurity := middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	})
	dashboardSecurity := middleware.Security(middleware.SecurityConfig{
		IsDevelopment:         cfg.IsDevelopment(),
		ContentSecurityPolicy: middleware.DashboardContentSecurityPolicy,
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Probes and metrics
	r.Group(func(r chi.Router) {
		r.Use(apiSecurity)
		r.Get("/healthz", healthHandler.Healthz)
		r.Get("/readyz", healthHandler.Readyz)
		r.Get("/metrics", metricsHandler.Metrics)
	})

	// Websites API
	r.Route("/api", func(r chi.Router) {
		r.Use(apiSecurity)
		r.Use(middleware.CORS(corsCfg))
		r.Get("/", h.Info)
		r.Route("/websites", websiteHandler.Routes)
	})

	// Dashboard
	r.Group(func(r chi.Router) {
		r.Use(dashboardSecurity)
		r.Get("/", dashboardHandler.Index)
		r.Route("/dashboard", dashboardHandler.Routes)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
