package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/bullboard/config"
	"github.com/target/bullboard/internal/adapters/bullmq"
	rediscache "github.com/target/bullboard/internal/adapters/redis"
	"github.com/target/bullboard/internal/core"
	"github.com/target/bullboard/internal/observability/notify"
	"github.com/target/bullboard/internal/observability/notify/pagerduty"
	"github.com/target/bullboard/internal/observability/notify/slack"
	"github.com/target/bullboard/internal/observability/statsd"
	"github.com/target/bullboard/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Backend   *bullmq.Backend
	Cache     *rediscache.Cache // nil when BOARD_SHARED_CACHE is off
	Board     *service.BoardService
	Actions   *service.ActionService
	Refresher *service.Refresher
	Failures  *service.FailureWatcher // nil when no notification sink is enabled
	Metrics   *statsd.Client          // nil when metrics are disabled
	Location  *time.Location
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	Now         func() time.Time // Optional: defaults to time.Now
}

// NewServices wires the backend, the board and its background refresher.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	boardCfg := deps.Config.Board

	loc, err := boardCfg.Location()
	if err != nil {
		logger.Warn("unknown board timezone, using UTC", "timezone", boardCfg.Timezone, "error", err)
	}

	metrics := buildMetrics(logger, deps.Config.Observability.Metrics)
	var sink statsd.Sink
	if metrics != nil {
		sink = metrics
	}

	backend, err := bullmq.NewBackend(bullmq.Options{
		Client:      deps.RedisClient,
		Prefix:      boardCfg.KeyPrefix,
		PerState:    boardCfg.JobsPerState,
		Concurrency: boardCfg.FetchConcurrency,
		Logger:      logger,
		Now:         deps.Now,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create bullmq backend: %w", err)
	}

	var (
		cache     *rediscache.Cache
		cacheRepo core.CacheRepository
	)
	if boardCfg.SharedCache {
		cache = rediscache.NewCacheWithNamespace(deps.RedisClient, rediscache.DefaultNamespace+backend.Prefix())
		cacheRepo = cache
	}

	board, err := service.NewBoardService(service.BoardServiceOptions{
		Backend: backend,
		Config: service.BoardConfig{
			Queues:       boardCfg.QueueRefs(),
			Prefix:       backend.Prefix(),
			Fallback:     boardCfg.StatusFallback,
			SnapshotTTL:  boardCfg.SnapshotTTL,
			FetchTimeout: boardCfg.FetchTimeout,
			PerState:     boardCfg.JobsPerState,
			Location:     loc,
		},
		Cache:   cacheRepo,
		Metrics: sink,
		Logger:  logger,
		Now:     deps.Now,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create board service: %w", err)
	}

	actions, err := service.NewActionService(service.ActionServiceOptions{
		Backend:  backend,
		Board:    board,
		Resolver: board.Resolver(),
		Metrics:  sink,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create action service: %w", err)
	}

	failures, err := buildFailureWatcher(failureWatcherDeps{
		Config:  deps.Config.Observability.Notifications,
		Dedup:   cacheRepo,
		Prefix:  backend.Prefix(),
		Metrics: sink,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create failure watcher: %w", err)
	}

	refresher, err := service.NewRefresher(service.RefresherOptions{
		Board:        board,
		Schedule:     boardCfg.RefreshSchedule,
		Lock:         cacheRepo,
		Failures:     failures,
		AlertTimeout: alertTimeout(deps.Config.Observability.Notifications),
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create refresher: %w", err)
	}

	return ServiceContainer{
		Backend:   backend,
		Cache:     cache,
		Board:     board,
		Actions:   actions,
		Refresher: refresher,
		Failures:  failures,
		Metrics:   metrics,
		Location:  loc,
	}, nil
}

// Close releases resources owned by the container. The Redis client is owned
// by the caller.
func (c ServiceContainer) Close() error {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}

// buildMetrics returns a StatsD client, or nil when metrics are disabled or
// the endpoint cannot be dialled.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

type failureWatcherDeps struct {
	Config  config.ObservabilityNotificationsConfig
	Dedup   core.CacheRepository
	Prefix  string
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// buildFailureWatcher returns nil when notifications are off or no sink is configured.
func buildFailureWatcher(deps failureWatcherDeps) (*service.FailureWatcher, error) {
	cfg := deps.Config
	if !cfg.HasSinks() {
		return nil, nil
	}

	var sinks []service.NamedSink
	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
			BoardURL:   cfg.Slack.BoardURL,
		})
		if err != nil {
			return nil, fmt.Errorf("slack notifier: %w", err)
		}
		sinks = append(sinks, service.NamedSink{Name: "slack", Sink: client})
	}
	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("pagerduty notifier: %w", err)
		}
		sinks = append(sinks, service.NamedSink{Name: "pagerduty", Sink: client})
	}

	return service.NewFailureWatcher(service.FailureWatcherOptions{
		Sinks:    sinks,
		Dedup:    deps.Dedup,
		DedupTTL: cfg.DedupTTL,
		Prefix:   deps.Prefix,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	})
}

// alertTimeout covers every attempt with its backoff for each enabled sink.
func alertTimeout(cfg config.ObservabilityNotificationsConfig) time.Duration {
	if !cfg.HasSinks() {
		return 0
	}
	attempts := time.Duration(cfg.RetryLimit + 1)
	perSink := attempts*cfg.Timeout + attempts*attempts*notify.DefaultRetryDelay
	return max(perSink*2, service.DefaultAlertTimeout)
}
