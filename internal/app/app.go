package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/MMucahit/borsa/internal/config"
	apierrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/internal/infrastructure"
	customMiddleware "github.com/MMucahit/borsa/internal/middleware"
	"github.com/MMucahit/borsa/internal/operations"
	"github.com/MMucahit/borsa/internal/services"
	handlers "github.com/MMucahit/borsa/internal/transport/http"
	"github.com/MMucahit/borsa/pkg/contracts"
)

// AppName is reported in startup logs
const AppName = "Borsa Takas/AKD Reconciler"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	Engine        *operations.Engine
	RunService    *services.RunService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads the configuration and logger and wires the application
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	engine, err := operations.NewEngine(operations.EngineOptions{
		Logger:  logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	runService := services.NewRunService(engine, services.RunServiceOptionsFromConfig(cfg, metrics), logger)

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Engine:        engine,
		RunService:    runService,
		HealthService: services.NewHealthService(runService, cfg.Server.WorkspaceDir, logger),
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()
	return a, nil
}

// setupRouter orders middleware as RequestID → RealIP → OTel → Logger → Recoverer → headers → rate limit
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			a.ErrorHandler,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	validator := customMiddleware.NewValidator(a.Logger, a.ErrorHandler)
	reconcileHandler := handlers.NewReconcileHandler(
		a.RunService,
		validator,
		a.ErrorHandler,
		a.Config.Reconcile.RunOptions(),
		a.Logger,
	)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Deadline(a.Config.Server.RunTimeout + a.Config.Server.ReadTimeout))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/", reconcileHandler.Routes(a.Config.Server.MaxUploadBytes))
	})

	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("address", a.Server.Addr),
			slog.String("workspace_dir", a.Config.Server.WorkspaceDir))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the server, flushes telemetry and closes the log file
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.Info("Application shutdown complete",
		slog.Int("cached_runs", a.RunService.CachedRuns()))

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
