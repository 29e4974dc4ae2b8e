package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cronlib "github.com/robfig/cron/v3"
	"github.com/target/bullboard/internal/core"
)

// DefaultRefreshSchedule refreshes the board every five seconds.
const DefaultRefreshSchedule = "@every 5s"

// DefaultAlertTimeout bounds failure alert delivery within one tick.
const DefaultAlertTimeout = 30 * time.Second

const refreshLockKey = "refresh-lock"

// cronParser accepts standard 5-field expressions and descriptors like "@every 5s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule validates a refresh schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", expr, err)
	}
	return sched, nil
}

// RefresherOptions groups dependencies for Refresher.
type RefresherOptions struct {
	Board    *BoardService        // Required
	Schedule string               // Optional: defaults to DefaultRefreshSchedule
	Lock     core.CacheRepository // Optional: one replica refreshes per tick when set
	// LockTTL bounds how long a tick holds the lock; defaults to the board snapshot TTL.
	LockTTL time.Duration
	// Failures, when set, is handed every snapshot this replica refreshes.
	Failures *FailureWatcher
	// AlertTimeout bounds alert delivery per tick; defaults to DefaultAlertTimeout.
	AlertTimeout time.Duration
	Logger       *slog.Logger
}

// Refresher keeps the board snapshot warm on a cron schedule.
type Refresher struct {
	board    *BoardService
	schedule cronlib.Schedule
	lock     core.CacheRepository
	lockTTL  time.Duration
	owner    string
	logger   *slog.Logger

	failures     *FailureWatcher
	alertTimeout time.Duration
}

// NewRefresher constructs a Refresher.
func NewRefresher(opts RefresherOptions) (*Refresher, error) {
	if opts.Board == nil {
		return nil, errors.New("BoardService is required")
	}
	expr := opts.Schedule
	if expr == "" {
		expr = DefaultRefreshSchedule
	}
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = opts.Board.cfg.SnapshotTTL
	}
	alertTimeout := opts.AlertTimeout
	if alertTimeout <= 0 {
		alertTimeout = DefaultAlertTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		board:    opts.Board,
		schedule: sched,
		lock:     opts.Lock,
		lockTTL:  lockTTL,
		owner:    uuid.NewString(),
		logger:   logger.With("component", "refresher", "schedule", expr),

		failures:     opts.Failures,
		alertTimeout: alertTimeout,
	}, nil
}

// Tick runs one refresh. With a lock configured, the tick is skipped when
// another replica holds it; the lock is left to expire so a replica refreshes
// at most once per lock TTL.
func (r *Refresher) Tick(ctx context.Context) error {
	if r.lock != nil {
		ok, err := r.lock.SetIfNotExists(ctx, refreshLockKey, []byte(r.owner), r.lockTTL)
		if err != nil {
			r.logger.WarnContext(ctx, "refresh lock unavailable, refreshing anyway", "error", err)
		} else if !ok {
			r.logger.DebugContext(ctx, "refresh skipped, lock held elsewhere")
			return nil
		}
	}
	snap, err := r.board.Refresh(ctx)
	if err != nil {
		return err
	}
	if r.failures == nil {
		return nil
	}
	if sent, err := r.failures.Observe(ctx, snap); err != nil {
		r.logger.WarnContext(ctx, "some failure alerts were not delivered", "alerted", sent, "error", err)
	} else if sent > 0 {
		r.logger.InfoContext(ctx, "failure alerts sent", "alerted", sent)
	}
	return nil
}

// Run refreshes on the schedule until ctx is canceled. Overlapping ticks are skipped.
func (r *Refresher) Run(ctx context.Context) error {
	c := cronlib.New(
		cronlib.WithChain(cronlib.SkipIfStillRunning(cronLogger{r.logger})),
		cronlib.WithLogger(cronLogger{r.logger}),
	)
	c.Schedule(r.schedule, cronlib.FuncJob(func() {
		timeout := r.lockTTL + r.board.cfg.SnapshotTTL
		if r.failures != nil {
			timeout += r.alertTimeout
		}
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := r.Tick(tickCtx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "board refresh failed", "error", err)
		}
	}))

	r.logger.InfoContext(ctx, "refresher started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.InfoContext(context.WithoutCancel(ctx), "refresher stopped")
	return nil
}

// cronLogger adapts slog to the cron logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
