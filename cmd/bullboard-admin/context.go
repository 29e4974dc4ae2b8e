package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/bullboard/config"
	"github.com/target/bullboard/internal/bootstrap"
	"github.com/target/bullboard/internal/core"
	"github.com/target/bullboard/internal/service"
)

const defaultCommandTimeout = 30 * time.Second

// appHandle is the set of services a command works with.
type appHandle struct {
	Board    *service.BoardService
	Actions  *service.ActionService
	Backend  core.QueueBackend
	Location *time.Location
	PageSize int
	close    func() error
}

func (h *appHandle) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	return h.close()
}

type commandContext struct {
	logger  *slog.Logger
	timeout time.Duration
	open    func(ctx context.Context, logger *slog.Logger) (*appHandle, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		logger:  bootstrap.InitLogger(&config.AppConfig{LogLevel: "warn"}),
		timeout: defaultCommandTimeout,
		open:    openServices,
	}
}

// withApp opens the services, runs fn under the command timeout and closes them.
func (c *commandContext) withApp(parent context.Context, fn func(context.Context, *appHandle) error) error {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	app, err := c.open(ctx, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			c.logger.Warn("close services failed", "error", cerr)
		}
	}()
	return fn(ctx, app)
}

func openServices(_ context.Context, logger *slog.Logger) (*appHandle, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger = bootstrap.InitLogger(&cfg)

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisConnConfig{Redis: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	// The CLI always reads fresh state rather than a snapshot published by a server.
	cfg.Board.SharedCache = false

	svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(err, redisClient.Close())
	}

	return &appHandle{
		Board:    svcs.Board,
		Actions:  svcs.Actions,
		Backend:  svcs.Backend,
		Location: svcs.Location,
		PageSize: cfg.Board.DefaultPageSize,
		close: func() error {
			return errors.Join(svcs.Close(), redisClient.Close())
		},
	}, nil
}
