package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"waterq/internal/config"
	"waterq/internal/errors"
	"waterq/internal/files"
	"waterq/internal/infrastructure"
	customMiddleware "waterq/internal/middleware"
	"waterq/internal/pipeline"
	"waterq/internal/services"
	handlers "waterq/internal/transport/http"
	"waterq/internal/validation"
	ws "waterq/internal/websocket"
	"waterq/pkg/contracts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

// systemMetricsInterval is how often the runtime collector samples.
const systemMetricsInterval = 30 * time.Second

// Application wires configuration, observability, the dataset pipeline
// and the HTTP surface together.
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	BusinessMetrics *infrastructure.BusinessMetrics
	SystemCollector *infrastructure.SystemMetricsCollector
	WebSocketHub    *ws.Hub
	Pipeline        *pipeline.Pipeline
	ArtifactStore   *files.Store
	DatasetService  *services.DatasetService
	HealthService   *services.HealthService

	errorHandler *errors.ErrorHandler
	validation   *customMiddleware.ValidationMiddleware
}

// NewApplication creates the application from the ambient configuration
// (config file plus WATERQ_* environment variables).
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig assembles the application around an explicit
// configuration. Tests use this to point the service at fixture data.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths := config.NewPaths(cfg)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Non-fatal: the health endpoint reports the missing file and the
	// first build fails with a 503 until a usable file appears.
	if err := validation.NewFileValidator(logger).ValidateSourceFile(paths.SourceFile); err != nil {
		logger.Warn("Source dataset not usable",
			slog.String("path", paths.SourceFile),
			slog.String("reason", err.Error()),
			slog.String("action", "builds will fail until a usable file appears"))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	businessMetrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	systemCollector, err := infrastructure.NewSystemMetricsCollector(otelProviders.Meter, systemMetricsInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics collector: %w", err)
	}

	app := &Application{
		Config:          cfg,
		Paths:           paths,
		Logger:          logger,
		OTelProviders:   otelProviders,
		BusinessMetrics: businessMetrics,
		SystemCollector: systemCollector,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the hub, the pipeline and the services in
// dependency order.
func (a *Application) initializeServices() {
	hub := ws.NewHub(a.Logger, a.BusinessMetrics)
	hub.Start()
	a.WebSocketHub = hub

	// Build progress reaches websocket clients through the notifier.
	a.Pipeline = pipeline.New(a.Logger, ws.NewBuildNotifier(hub, a.Logger))
	a.Pipeline.Instrument(a.BusinessMetrics)

	a.ArtifactStore = files.NewStore(a.Paths.ExportDir, a.Logger)

	a.DatasetService = services.NewDatasetService(a.Paths.SourceFile, a.Pipeline, a.Logger, a.BusinessMetrics)
	if a.Config.Dataset.ExportArtifact {
		a.DatasetService.ExportTo(a.ArtifactStore)
	}
	a.HealthService = services.NewHealthService(a.DatasetService, a.ArtifactStore, a.Logger)

	a.errorHandler = errors.NewErrorHandler(a.Logger, false)
	a.validation = customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone goes here;
	// everything below must stay compatible with the websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The websocket route stays outside the API group: wrapping
	// middleware hides the http.Hijacker the upgrade needs.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.BusinessMetrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))
		r.Use(middleware.Compress(5))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures the JSON API under /api.
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.validation, a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
		r.Use(a.validation.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/dataset", datasetHandler.Routes())
		r.Get("/regions", datasetHandler.GetRegions)
	})
}

// allowedOrigins returns the origins the CORS layer and the websocket
// upgrade both accept.
func (a *Application) allowedOrigins() []string {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Security.EnableCORS {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}
	return origins
}

// corsConfig returns the CORS policy for the API. The surface is
// read-only, so only GET and preflight are allowed.
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.allowedOrigins(),
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the server and the background collectors. The cancel
// func is invoked when the listener fails, so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("source_file", a.Paths.SourceFile),
		slog.String("export_dir", a.Paths.ExportDir))

	go a.SystemCollector.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	// Warm the dataset cache so the first request and the first
	// websocket subscriber see a built snapshot instead of paying for
	// the build themselves.
	go func() {
		warmCtx := context.Background()
		if _, err := a.DatasetService.Snapshot(warmCtx); err != nil {
			a.Logger.WarnContext(warmCtx, "Initial dataset build failed",
				slog.String("error", err.Error()),
				slog.String("source_file", a.Paths.SourceFile))
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.SystemCollector.Stop()
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades the connection and hands it to the hub. The
// request ID becomes the client's trace ID so log lines correlate.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := customMiddleware.GetReqID(r.Context())
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin:     a.checkWebSocketOrigin(ctx),
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	ws.ServeWSWithTrace(a.WebSocketHub, conn, reqID)
}

// checkWebSocketOrigin accepts same-host upgrades, requests without an
// Origin header (non-browser clients), and the configured CORS origins.
func (a *Application) checkWebSocketOrigin(ctx context.Context) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		for _, allowed := range a.allowedOrigins() {
			if origin == allowed {
				return true
			}
		}
		a.Logger.WarnContext(ctx, "WebSocket origin rejected",
			slog.String("origin", origin),
			slog.String("host", r.Host))
		return false
	}
}

// performStartupHealthCheck verifies the paths the service depends on.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	checks := validation.NewFileValidator(a.Logger)

	var warnings []string
	directories := map[string]string{
		"export": a.Paths.ExportDir,
		"logs":   a.Paths.LogsDir,
	}
	for name, dir := range directories {
		if dir == "" {
			continue
		}
		if err := checks.ValidateOutputDirectory(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if err := checks.ValidateSourceFile(a.Paths.SourceFile); err != nil {
		warnings = append(warnings, err.Error())
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
