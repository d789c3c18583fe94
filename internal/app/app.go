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

	"github.com/bissquit/asset-desk/internal/alerts"
	"github.com/bissquit/asset-desk/internal/alerts/mattermost"
	alertspostgres "github.com/bissquit/asset-desk/internal/alerts/postgres"
	"github.com/bissquit/asset-desk/internal/compliance"
	"github.com/bissquit/asset-desk/internal/config"
	"github.com/bissquit/asset-desk/internal/incidents"
	incidentspostgres "github.com/bissquit/asset-desk/internal/incidents/postgres"
	"github.com/bissquit/asset-desk/internal/inventory"
	inventorypostgres "github.com/bissquit/asset-desk/internal/inventory/postgres"
	"github.com/bissquit/asset-desk/internal/pkg/ctxlog"
	"github.com/bissquit/asset-desk/internal/pkg/httputil"
	"github.com/bissquit/asset-desk/internal/pkg/metrics"
	"github.com/bissquit/asset-desk/internal/pkg/postgres"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/bissquit/asset-desk/internal/source"
	"github.com/bissquit/asset-desk/internal/source/firestore"
	"github.com/bissquit/asset-desk/internal/users"
	userspostgres "github.com/bissquit/asset-desk/internal/users/postgres"
	"github.com/bissquit/asset-desk/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	alertWorker   *alerts.Worker

	mirror     *firestore.Mirror
	mirrorDone chan error
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go app.collectDBMetrics(metricsCtx)

	router, err := app.setupRouter(metricsCtx)
	if err != nil {
		app.stopBackground()
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
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

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.stopBackground()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPool(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPool(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// AlertWorker returns the alert worker instance.
// Returns nil if alerts are disabled.
func (a *App) AlertWorker() *alerts.Worker {
	return a.alertWorker
}

// stopBackground stops the alert worker, the Firestore listeners and the metrics
// collectors.
func (a *App) stopBackground() {
	if a.alertWorker != nil {
		a.alertWorker.Stop()
	}

	a.metricsCancel()

	if a.mirror != nil {
		if err := <-a.mirrorDone; err != nil {
			a.logger.Error("firestore mirror stopped with error", "error", err)
		}
		if err := a.mirror.Close(); err != nil {
			a.logger.Error("close firestore client", "error", err)
		}
		a.mirror = nil
	}
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
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
    <title>Asset Desk API</title>
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

	cal, err := a.config.SLA.Calendar()
	if err != nil {
		return nil, fmt.Errorf("build business calendar: %w", err)
	}

	usersRepo := userspostgres.NewRepository(a.db)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(usersService)

	inventoryRepo := inventorypostgres.NewRepository(a.db)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(inventoryService)

	incidentsRepo := incidentspostgres.NewRepository(a.db)
	incidentsService := incidents.NewService(incidentsRepo, inventoryService, usersService)
	incidentsHandler := incidents.NewHandler(incidentsService)

	reader, err := a.setupSource(ctx, inventoryRepo, incidentsRepo, usersRepo)
	if err != nil {
		return nil, err
	}

	evaluator := sla.NewEvaluator(cal, sla.WithWorkers(a.config.SLA.Workers))
	complianceService := compliance.NewService(reader, evaluator)
	complianceHandler := compliance.NewHandler(complianceService)

	slog.Info("sla configured",
		"timezone", a.config.SLA.Timezone,
		"business_start", a.config.SLA.BusinessStart,
		"business_end", a.config.SLA.BusinessEnd,
		"source", a.config.Source.Driver,
		"alerts_enabled", a.config.Alerts.Enabled,
	)

	if a.config.Alerts.Enabled {
		renderer, err := alerts.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("create alert renderer: %w", err)
		}

		sender := mattermost.NewSender(mattermost.Config{
			WebhookURL: a.config.Alerts.WebhookURL,
			Channel:    a.config.Alerts.Channel,
			Username:   a.config.Alerts.Username,
			Timeout:    a.config.Alerts.Timeout,
			RateLimit:  a.config.Alerts.RateLimit,
		})

		a.alertWorker = alerts.NewWorker(alerts.WorkerConfig{
			Interval:     a.config.Alerts.Interval,
			MaxAge:       a.config.Alerts.MaxAge,
			DashboardURL: a.config.Alerts.DashboardURL,
		}, complianceService, alertspostgres.NewRepository(a.db), renderer, sender)
		a.alertWorker.Start(ctx)
	}

	r.Route("/api/v1", func(r chi.Router) {
		usersHandler.RegisterRoutes(r)
		inventoryHandler.RegisterRoutes(r)
		incidentsHandler.RegisterRoutes(r)
		complianceHandler.RegisterRoutes(r)
	})

	return r, nil
}

// setupSource picks the snapshot reader behind the SLA endpoints. The Firestore
// mirror keeps listening until ctx is cancelled.
func (a *App) setupSource(ctx context.Context, equipment source.EquipmentLister, incidentList source.IncidentLister, userList source.UserLister) (source.Reader, error) {
	if a.config.Source.Driver != config.DriverFirestore {
		return source.NewRepositoryReader(equipment, incidentList, userList), nil
	}

	mirror, err := firestore.New(ctx, firestore.Config{
		ProjectID:  a.config.Firestore.ProjectID,
		DatabaseID: a.config.Firestore.DatabaseID,
	})
	if err != nil {
		return nil, fmt.Errorf("create firestore mirror: %w", err)
	}

	a.mirror = mirror
	a.mirrorDone = make(chan error, 1)
	go func() { a.mirrorDone <- mirror.Run(ctx) }()

	waitCtx, cancel := context.WithTimeout(ctx, a.config.Firestore.ReadyTimeout)
	defer cancel()
	if err := mirror.WaitReady(waitCtx); err != nil {
		// Requests get 503 until the first snapshot of every collection arrives.
		slog.Warn("firestore mirror not ready yet", "error", err)
	} else {
		slog.Info("firestore mirror ready", "project_id", a.config.Firestore.ProjectID)
	}

	return mirror, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.From(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if a.mirror != nil && !a.mirror.Ready() {
		httputil.Text(w, http.StatusServiceUnavailable, "Snapshot source not ready")
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
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
