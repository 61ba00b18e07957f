package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/config"
	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/infrastructure"
	customMiddleware "kpianalyzer/internal/middleware"
	"kpianalyzer/internal/remote"
	"kpianalyzer/internal/services"
	handlers "kpianalyzer/internal/transport/http"
	ws "kpianalyzer/internal/websocket"
)

// AppName is reported in startup logs
const AppName = config.AppName

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         *catalog.Store
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer

	errorHandler *apierrors.ErrorHandler
	listener     net.Listener
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Ingest    *services.IngestService
	Import    *services.ImportService
	Analytics *services.AnalyticsService
	Health    *services.HealthService
}

// NewApplication loads the configuration, initializes the process logger and
// wires the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	cfg.Logging.FilePath = paths.LogFile(cfg.Logging.FilePath)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the store, the websocket hub and the services
// around them
func (a *Application) initializeServices() error {
	ingestMetrics, err := infrastructure.NewIngestMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create ingest metrics: %w", err)
	}
	hubMetrics, err := ws.NewHubMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}

	a.Store = catalog.NewStore(a.Logger, a.Config.Ingest.DefaultAgencies, a.Config.Ingest.DefaultPeriods)

	a.WebSocketHub = ws.NewHub(ws.HubOptions{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		Metrics:         hubMetrics,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		PingPeriod:      a.Config.WebSocket.PingPeriod,
		PongWait:        a.Config.WebSocket.PongWait,
	}, a.Logger)
	a.Store.Subscribe(a.WebSocketHub.OnStoreChange)

	ingestService := services.NewIngestService(a.Store, services.IngestOptions{
		Workers: a.Config.Ingest.Workers,
		Tracer:  a.OTelProviders.Tracer,
		Metrics: ingestMetrics,
	}, a.Logger)

	remoteCfg := a.Config.Remote
	client := remote.NewClient(remote.ClientOptions{
		Timeout:           remoteCfg.Timeout,
		RequestsPerSecond: remoteCfg.RequestsPerSecond,
		Burst:             remoteCfg.Burst,
		UserAgent:         remoteCfg.UserAgent,
		ExportBaseURL:     remoteCfg.ExportBaseURL,
	}, a.Logger)

	var sheetsAPI *remote.SheetsAPI
	if remoteCfg.SheetsAPIKey != "" {
		sheetsAPI, err = remote.NewSheetsAPI(context.Background(), remoteCfg.SheetsAPIKey, remoteCfg.RequestsPerSecond, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize sheets api: %w", err)
		}
	} else {
		a.Logger.Info("Sheets API import disabled, no API key configured")
	}

	skip := remote.SkipPolicy{Contains: remoteCfg.SkipContains, Exact: remoteCfg.SkipExact}
	importService := services.NewImportService(ingestService, client, sheetsAPI, remoteCfg.ExpectedSheets, skip, a.Logger)

	a.Services = &ServiceContainer{
		Ingest:    ingestService,
		Import:    importService,
		Analytics: services.NewAnalyticsService(a.Store, ingestMetrics, a.Logger),
		Health: services.NewHealthService(services.HealthOptions{
			Version:     config.AppVersion,
			ExportsDir:  a.Paths.ExportsDir,
			Store:       a.Store,
			ClientCount: a.WebSocketHub.ClientCount,
			SheetsAPI:   sheetsAPI != nil,
		}, a.Logger),
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone, so /ws can hijack.
	// CORS sits here because preflight requests match no route.
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	if a.Config.Security.EnableCORS {
		r.Use(cors.Handler(a.corsOptions()))
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Handle("/ws", a.WebSocketHub)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// Order: OTel, logger, recoverer, security headers, rate limit
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.errorHandler.RecoveryMiddleware)
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidator(a.Config.Ingest.MaxUploadBytes)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	catalogHandler := handlers.NewCatalogHandler(a.Services.Analytics, a.Services.Ingest, validator,
		a.Config.Ingest.MaxUploadBytes, a.errorHandler, a.Logger)
	importHandler := handlers.NewImportHandler(a.Services.Import, validator, a.errorHandler, a.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(a.Services.Analytics, validator, a.errorHandler, a.Logger)
	exportHandler := handlers.NewExportHandler(a.Services.Analytics, a.errorHandler, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())

		r.Get("/catalog", catalogHandler.GetCatalog)
		r.Mount("/agencies", catalogHandler.AgencyRoutes())
		r.Mount("/imports", importHandler.Routes())

		r.Get("/selection", analyticsHandler.GetSelection)
		r.Put("/selection", analyticsHandler.PutSelection)
		r.Mount("/views", analyticsHandler.ViewRoutes())

		r.Mount("/exports", exportHandler.Routes())
	})
}

func (a *Application) corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Addr returns the address the server listens on once started.
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start starts the hub and the HTTP server. A serve failure cancels the
// application context through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("base_dir", a.Paths.BaseDir),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("exports_dir", a.Paths.ExportsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = listener

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", listener.Addr().String()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Hijacked websocket connections are not tracked by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// ctx is already cancelled; shutdown gets its own deadline
	err := a.Stop(context.Background())
	if closeErr := infrastructure.CloseLogFile(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// performStartupHealthCheck verifies the working directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Exports": a.Paths.ExportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
