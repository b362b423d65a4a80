// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/config"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/notifications"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/ctxlog"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/httputil"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/metrics"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/scheduler"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	storage       *storage
	queue         *feedQueue
	incidents     *incidents.Service
	scheduler     *scheduler.Scheduler
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	closeOnce     sync.Once
}

// New creates a new application instance. Storage is migrated and connected;
// servers and the scheduler start in Run.
func New(cfg *config.Config) (*App, error) {
	return NewWithClock(cfg, clock.Real{})
}

// NewWithClock is New with an injected time source.
func NewWithClock(cfg *config.Config, clk clock.Clock) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	queue, err := openQueue(cfg)
	if err != nil {
		store.close()
		return nil, err
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		storage:       store,
		queue:         queue,
		metricsCancel: metricsCancel,
	}

	metrics.RecordBuildInfo(version.Version, version.GitCommit, store.driver)
	go app.collectDBMetrics(metricsCtx)

	router := app.setupRouter(clk)

	app.scheduler = scheduler.New(scheduler.Config{
		Interval: cfg.Scheduler.Interval,
		Timeout:  cfg.Incidents.EscalationTimeout,
	}, app.incidents)

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("application initialized",
		"storage", store.driver,
		"queue", cfg.Notifications.Queue.Driver,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	return app, nil
}

// Run starts the scheduler and the HTTP servers. It blocks until the main
// server stops.
func (a *App) Run(ctx context.Context) error {
	if a.config.Scheduler.Enabled {
		a.scheduler.Start(ctx)
	}

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the scheduler, drains both servers and releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	if a.config.Scheduler.Enabled {
		a.scheduler.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	a.Close()

	return errors.Join(errs...)
}

// Close releases storage and queue connections. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.metricsCancel()
		a.queue.close()
		a.storage.close()
	})
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Incidents returns the lifecycle engine.
func (a *App) Incidents() *incidents.Service {
	return a.incidents
}

// Scheduler returns the escalation scheduler.
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

func (a *App) collectDBMetrics(ctx context.Context) {
	a.storage.recordMetrics()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.storage.recordMetrics()
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) setupRouter(clk clock.Clock) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>On-Call API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	notifier := notifications.NewQueueNotifier(a.queue, clk)
	notificationsHandler := notifications.NewHandler(notifications.NewService(a.queue))

	resolver := oncall.NewResolver(a.storage.schedules)
	oncallService := oncall.NewService(a.storage.schedules, resolver, clk)
	oncallHandler := oncall.NewHandler(oncallService)

	escalationService := escalation.NewService(a.storage.levels, clk)
	escalationHandler := escalation.NewHandler(escalationService)

	a.incidents = incidents.NewService(
		a.storage.incidents,
		resolver,
		escalationService,
		notifier,
		clk,
		incidents.Config{
			DedupWindow:       a.config.Incidents.DedupWindow,
			EscalationTimeout: a.config.Incidents.EscalationTimeout,
		},
	)

	var sweepLimiter *rate.Limiter
	if rl := a.config.RateLimit; rl.SweepRPS > 0 {
		sweepLimiter = rate.NewLimiter(rate.Limit(rl.SweepRPS), max(rl.SweepBurst, 1))
	}
	incidentsHandler := incidents.NewHandler(a.incidents, notifier, sweepLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		incidentsHandler.RegisterRoutes(r)
		oncallHandler.RegisterRoutes(r)
		escalationHandler.RegisterRoutes(r)
		notificationsHandler.RegisterRoutes(r)
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.storage.ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "component", "storage", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if err := a.queue.ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "component", "queue", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Notification queue unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
