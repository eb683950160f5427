package bootstrap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psai-foundry/project-foundry-psa-sub001/config"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/devauth"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/ledger"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/migrationrunner"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/oidc"
	reaperadapter "github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/reaper"
	redisadapter "github.com/psai-foundry/project-foundry-psa-sub001/internal/adapters/redis"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/data"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	httpx "github.com/psai-foundry/project-foundry-psa-sub001/internal/http"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

const shutdownWaitTimeout = 30 * time.Second

// queueJobTypeMigrationStart is the queue job type the dispatcher resolves
// into a coordinator start. Its payload is a migration configuration.
const queueJobTypeMigrationStart = "migration.start"

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Runner      *migrationrunner.Runner
	Queues      *service.QueueService
	Dispatcher  *service.QueueDispatcher
	Reaper      *reaperadapter.Runner
	Audit       *data.AuditRepo
	Verifier    httpx.ActorVerifier
	MetricsSink *statsd.Client
}

// Coordinator exposes the migration coordinator shared by the HTTP control
// plane and the worker loop.
func (c *ServiceContainer) Coordinator() *service.Coordinator {
	if c.Runner == nil {
		return nil
	}
	return c.Runner.Coordinator()
}

// NewServices builds the full service graph from shared infrastructure.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metricsSink := buildMetricsSink(logger, cfg.Observability.Metrics)
	audit := data.NewAuditRepo(deps.DB)

	submitter, err := buildSubmitter(logger, cfg.Ledger)
	if err != nil {
		return ServiceContainer{}, err
	}

	runner, err := migrationrunner.NewRunner(migrationrunner.RunnerOptions{
		DB:      deps.DB,
		Config:  cfg.Migration,
		Client:  submitter,
		Logger:  logger,
		Audit:   audit,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build migration runner: %w", err)
	}

	queueStore := redisadapter.NewQueueStore(deps.RedisClient)
	queues, err := service.NewQueueService(service.QueueServiceOptions{
		Store:   queueStore,
		Audit:   audit,
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build queue service: %w", err)
	}

	dispatcher, err := service.NewQueueDispatcher(service.QueueDispatcherOptions{
		Store:       queueStore,
		Interval:    cfg.QueueDispatcher.Interval,
		MaxAttempts: cfg.QueueDispatcher.MaxAttempts,
		DrainLimit:  cfg.QueueDispatcher.DrainLimit,
		Logger:      logger,
		Metrics:     metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build queue dispatcher: %w", err)
	}
	registerQueueHandlers(dispatcher, runner.Coordinator())

	reaperRunner, err := reaperadapter.NewRunner(reaperadapter.RunnerOptions{
		DB:      deps.DB,
		Config:  cfg.Reaper,
		Logger:  logger,
		Audit:   audit,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build reaper: %w", err)
	}

	verifier, err := buildVerifier(ctx, cfg.Auth)
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Runner:      runner,
		Queues:      queues,
		Dispatcher:  dispatcher,
		Reaper:      reaperRunner,
		Audit:       audit,
		Verifier:    verifier,
		MetricsSink: metricsSink,
	}, nil
}

func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "psasync",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// buildSubmitter returns the live accounting client when credentials are
// configured, otherwise a local dry-run submitter so development environments
// never reach a real ledger.
//
//nolint:ireturn // callers only need the submission port.
func buildSubmitter(logger *slog.Logger, cfg config.LedgerConfig) (core.AccountingClient, error) {
	if !cfg.Configured() {
		logger.Warn("ledger credentials not configured; submissions run in dry-run mode")
		return ledger.NewDryRunSubmitter(), nil
	}
	client, err := ledger.NewClient(ledger.ClientOptions{
		BaseURL:      cfg.BaseURL,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Timeout:      cfg.Timeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build ledger client: %w", err)
	}
	return client, nil
}

//nolint:ireturn // the router only needs the verification port.
func buildVerifier(ctx context.Context, cfg config.AuthConfig) (httpx.ActorVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeOIDC:
		verifier, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL: cfg.OIDC.IssuerURL,
			ClientID:  cfg.OIDC.ClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("build oidc verifier: %w", err)
		}
		return verifier, nil
	case config.AuthModeMock:
		verifier, err := devauth.NewVerifier(cfg.DevAuth.Actor)
		if err != nil {
			return nil, fmt.Errorf("build dev verifier: %w", err)
		}
		return verifier, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

// registerQueueHandlers binds queue job types to their executors. A queued
// migration start lets operators schedule migrations through the queue API
// instead of firing them synchronously.
func registerQueueHandlers(dispatcher *service.QueueDispatcher, coordinator *service.Coordinator) {
	dispatcher.Register(queueJobTypeMigrationStart, func(ctx context.Context, job *model.QueueJob) error {
		var cfg model.MigrationConfig
		if err := json.Unmarshal(job.Payload, &cfg); err != nil {
			return fmt.Errorf("decode migration config: %w", err)
		}
		if _, err := coordinator.Start(ctx, cfg, "system:queue"); err != nil {
			return fmt.Errorf("start migration: %w", err)
		}
		return nil
	})
}

// ServiceOrchestrationConfig groups everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(enabled)+1)

	var httpServer *http.Server
	if enabled[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	var backgrounds []backgroundServiceHandle
	if enabled[config.ServiceModeMigrationWorker] {
		backgrounds = append(backgrounds, startBackground(serviceCtx, "migration-worker", errCh, cfg.Services.Runner.Run))
	}
	if enabled[config.ServiceModeQueueDispatcher] {
		backgrounds = append(backgrounds, startBackground(serviceCtx, "queue-dispatcher", errCh, cfg.Services.Dispatcher.Run))
	}
	if enabled[config.ServiceModeReaper] {
		backgrounds = append(backgrounds, startBackground(serviceCtx, "reaper", errCh, cfg.Services.Reaper.Run))
	}

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		httpTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

func startBackground(ctx context.Context, name string, errCh chan<- error, run func(context.Context) error) backgroundServiceHandle {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx); err != nil {
			errCh <- fmt.Errorf("%s: %w", name, err)
		}
	}()
	return backgroundServiceHandle{name: name, done: done}
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	httpTimeout time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Server:  cfg.httpServer,
			Timeout: cfg.httpTimeout,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
