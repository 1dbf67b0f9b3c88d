// Package app is the central wiring point for dependency injection: it
// builds the database, repositories, provider adapters, routing table, and
// the gateway itself from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/auth"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/handlers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/internal/observability"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/middleware"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/repositories"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/repositories/postgres"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/gateway"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/guard"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers/openai"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers/openrouter"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/usage"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Persistence
	UsageRepo    repositories.UsageRepository
	UsageService *usage.Service

	// Gateway core
	ProviderRegistry *providers.Registry
	Availability     *routing.AvailabilityRegistry
	RoutingTable     *routing.Table
	Gateway          *gateway.Service

	// Observability
	Metrics      *observability.Metrics
	PromRegistry *prometheus.Registry

	// HTTP surface
	AuthMiddleware    *middleware.AuthMiddleware
	CompletionHandler *handlers.CompletionHandler
	ProviderHandler   *handlers.ProviderHandler
	RoutingHandler    *handlers.RoutingHandler
	HealthHandler     *handlers.HealthHandler
	UsageHandler      *handlers.UsageHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.initUsage(cfg)
	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	if err := deps.initRouting(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize routing: %w", err)
	}
	deps.initMetrics(cfg)
	deps.initGateway(cfg)
	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close shuts the dependencies down in reverse order of construction.
func (d *Dependencies) Close(timeout time.Duration) {
	if d.UsageService != nil {
		if err := d.UsageService.Stop(timeout); err != nil {
			d.Logger.Warn("usage service shutdown incomplete", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("database close failed", zap.Error(err))
		}
	}
}

func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	d.DB = db
	d.UsageRepo = postgres.NewUsageRepository(db, d.Logger)
	return nil
}

func (d *Dependencies) initUsage(cfg *config.Config) {
	d.UsageService = usage.NewService(d.UsageRepo, d.Logger, usage.DefaultConfig())
}

// initProviders registers one adapter per configured backend. Availability is
// derived from configuration: enabled with credentials present.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.OpenAI.Enabled {
		adapter := openai.New(openai.Config{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Timeout: cfg.Providers.OpenAI.Timeout,
		})
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}
	if cfg.Providers.OpenRouter.Enabled {
		adapter := openrouter.New(openrouter.Config{
			APIKey:  cfg.Providers.OpenRouter.APIKey,
			BaseURL: cfg.Providers.OpenRouter.BaseURL,
			Timeout: cfg.Providers.OpenRouter.Timeout,
		})
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	d.ProviderRegistry = registry
	d.Availability = routing.NewAvailabilityRegistry(cfg.ProviderAvailability())

	d.Logger.Info("provider registry initialized",
		zap.Strings("providers", registry.Names()))
	return nil
}

func (d *Dependencies) initRouting(cfg *config.Config) error {
	table, err := routing.LoadTable(cfg.Gateway.RoutingTablePath)
	if err != nil {
		return err
	}

	d.RoutingTable = table
	d.Logger.Info("routing table loaded",
		zap.String("path", cfg.Gateway.RoutingTablePath),
		zap.Strings("task_types", table.TaskTypes()))
	return nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		return
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d.PromRegistry = registry
	d.Metrics = observability.NewMetrics(registry)
}

func (d *Dependencies) initGateway(cfg *config.Config) {
	d.Gateway = gateway.New(d.RoutingTable, d.Availability, d.ProviderRegistry, d.Logger, gateway.Options{
		DefaultMaxRetries: cfg.Gateway.DefaultMaxRetries,
		RetryBaseDelay:    cfg.Gateway.RetryBaseDelay,
		Metrics:           d.Metrics,
		Recorder:          d.UsageService,
	})
}

// initAuth builds the token validator. Without a secret (development only,
// Validate enforces one in production) the API runs unauthenticated.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("no JWT secret configured, API authentication disabled")
		return nil
	}

	validator, err := auth.NewValidator(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	return nil
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	var screen *guard.Screen
	if cfg.Gateway.BlockSecrets || cfg.Gateway.BlockInjections {
		screen = guard.NewScreen(cfg.Gateway.BlockSecrets, cfg.Gateway.BlockInjections)
	}

	d.CompletionHandler = handlers.NewCompletionHandler(d.Gateway, cfg.Gateway.DefaultTimeout, screen, d.Logger)
	d.ProviderHandler = handlers.NewProviderHandler(d.ProviderRegistry, d.Availability, d.Logger)
	d.RoutingHandler = handlers.NewRoutingHandler(d.RoutingTable, cfg.Gateway.RoutingTablePath, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Availability, d.Logger)
	d.UsageHandler = handlers.NewUsageHandler(d.UsageRepo, d.Logger)
}

// Start brings up the background workers.
func (d *Dependencies) Start() error {
	return d.UsageService.Start()
}
