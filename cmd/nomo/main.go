// Command nomo runs the NOMO CARS driver platform: the HTTP server and,
// when enabled, the orphan sweeper.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, cfgErr := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.LogLevel)
	if cfgErr != nil {
		logger.ErrorContext(ctx, "fatal error", "error", cfgErr)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logStartupInfo(ctx, logger, cfg)

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	infra, err := bootstrap.InitInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close infrastructure failed", "error", cerr)
		}
	}()

	adapters, err := bootstrap.BuildAdapters(ctx, bootstrap.AdapterDeps{
		Config:      cfg,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := adapters.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close adapters failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:   cfg,
		Adapters: adapters,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfg,
		Services: services,
		Adapters: adapters,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting nomo service",
		"auth_mode", string(cfg.Auth.Mode),
		"asset_backend", string(cfg.Storage.Backend),
		"ledger_db", cfg.Postgres.Enabled,
		"redis_drafts", cfg.Redis.Enabled,
		"mail", cfg.Mail.Enabled(),
		"events", cfg.Events.Enabled(),
		"dev", cfg.IsDev,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
