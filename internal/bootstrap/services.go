package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/adapters/sweeper"
	"github.com/nomocars/nomo-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions     *service.SessionService
	Registration *service.RegistrationService
	Access       *service.ProfileAccessService
	Fleet        *service.FleetService
	Admin        *service.AdminService
	Booking      *service.BookingService
	// Orphans is nil without a ledger database.
	Orphans *service.OrphanService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config   *config.AppConfig
	Adapters *Adapters
	Logger   *slog.Logger
}

// NewServices wires the domain services onto the adapters.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.Adapters == nil {
		return ServiceContainer{}, errors.New("service config and adapters are required")
	}
	cfg := deps.Config
	a := deps.Adapters
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	effects := service.Effects{
		Mailer: a.Mailer,
		Events: a.Events,
		Orphans: service.NewOrphanRecorder(service.OrphanRecorderOptions{
			Repo:   a.Orphans,
			Logger: logger,
		}),
		Logger: logger,
	}

	container := ServiceContainer{
		Sessions: service.NewSessionService(service.SessionServiceOptions{
			Stores:      service.SessionStores{Drivers: a.Drivers, Assets: a.Assets},
			Credentials: a.Credentials,
			Identity:    a.Identity,
			SessionTTL:  cfg.Auth.SessionTTL,
			Effects:     effects,
		}),
		Registration: service.NewRegistrationService(service.RegistrationServiceOptions{
			Stores:      service.RegistrationStores{Drivers: a.Drivers, Assets: a.Assets, Drafts: a.Drafts},
			Credentials: a.Credentials,
			Effects:     effects,
		}),
		Access: service.NewProfileAccessService(service.ProfileAccessServiceOptions{
			Drivers: a.Drivers,
			Logger:  logger,
		}),
		Fleet: service.NewFleetService(service.FleetServiceOptions{
			Drivers: a.Drivers,
			Assets:  a.Assets,
			Effects: effects,
		}),
		Admin: service.NewAdminService(service.AdminServiceOptions{
			Stores:      service.AdminStores{Admins: a.Admins, Drivers: a.Drivers, Assets: a.Assets},
			Credentials: a.Credentials,
			SessionTTL:  cfg.Auth.SessionTTL,
			Effects:     effects,
		}),
		Booking: service.NewBookingService(service.BookingServiceOptions{
			Drivers: a.Drivers,
			Effects: effects,
		}),
	}
	if a.Orphans != nil {
		container.Orphans = service.NewOrphanService(service.OrphanServiceOptions{
			Repo:        a.Orphans,
			Drivers:     a.Drivers,
			Assets:      a.Assets,
			Credentials: a.Credentials,
			Logger:      logger,
		})
	}
	return container, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Adapters *Adapters
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Adapters: deps.cfg.Adapters,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newSweeperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeSweeper,
		name: "orphan sweeper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Adapters == nil {
				return nil
			}
			a := deps.cfg.Adapters
			if a.Orphans == nil {
				return errors.New("sweeper requires the orphan ledger database (DB_ENABLED=true)")
			}
			var sweepCfg config.SweeperConfig
			if deps.cfg.Config != nil {
				sweepCfg = deps.cfg.Config.Sweeper
			}
			runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
				Repo:        a.Orphans,
				Drivers:     a.Drivers,
				Assets:      a.Assets,
				Credentials: a.Credentials,
				Config:      sweepCfg,
				Logger:      deps.logger,
			})
			if err != nil {
				return fmt.Errorf("create sweeper runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newSweeperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      result.HTTPServer,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
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
		timeout := cfg.shutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}
		// The service context is already cancelled; shut down on a fresh one.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
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
