package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/target/bullboard/config"
	"github.com/target/bullboard/internal/bootstrap"
	"github.com/target/bullboard/internal/devseed"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger := bootstrap.InitLogger(nil)
		logger.ErrorContext(ctx, "load config failed", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	logger := bootstrap.InitLogger(&cfg)
	if err := run(ctx, &cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logStartupInfo(ctx, logger, cfg)

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisConnConfig{
		Redis:  cfg.Redis,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	if cfg.IsDev && cfg.DevSeed {
		res, seedErr := devseed.Run(ctx, services.Backend, logger)
		if seedErr != nil {
			logger.WarnContext(ctx, "dev seed incomplete", "error", seedErr)
		}
		logger.InfoContext(ctx, "dev seed finished", "created", res.Created, "skipped", res.Skipped)
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting bullboard",
		"key_prefix", cfg.Board.KeyPrefix,
		"queues", cfg.Board.Queues,
		"refresh_schedule", cfg.Board.RefreshSchedule,
		"http_addr", cfg.HTTP.Addr,
		"shared_cache", cfg.Board.SharedCache,
		"failure_alerts", cfg.Observability.Notifications.HasSinks(),
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
