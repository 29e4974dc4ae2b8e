package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/target/bullboard/internal/core"
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/observability/metrics"
	"github.com/target/bullboard/internal/observability/notify"
	"github.com/target/bullboard/internal/observability/statsd"
)

const (
	// DefaultAlertDedupTTL is how long a sent alert is remembered in the shared cache.
	DefaultAlertDedupTTL = 24 * time.Hour
	// DefaultMaxAlertsPerTick caps the alerts sent for one snapshot.
	DefaultMaxAlertsPerTick = 20

	alertKeyPrefix      = "failure-alert:"
	defaultErrorClass   = "job_failed"
	maxErrorClassLength = 48
)

// NamedSink pairs a notification sink with the name used in logs and metrics.
type NamedSink struct {
	Name string
	Sink notify.Sink
}

// FailureWatcherOptions groups dependencies for FailureWatcher.
type FailureWatcherOptions struct {
	Sinks []NamedSink // Required: at least one
	// Dedup, when set, makes one replica send each alert.
	Dedup    core.CacheRepository
	DedupTTL time.Duration
	// MaxPerTick defaults to DefaultMaxAlertsPerTick.
	MaxPerTick int
	Severity   string
	// Prefix is attached to alerts as metadata.
	Prefix  string
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// FailureWatcher compares consecutive snapshots and alerts on jobs that
// newly entered the failed state. The first snapshot it sees is the baseline
// and produces no alerts.
type FailureWatcher struct {
	sinks      []NamedSink
	dedup      core.CacheRepository
	dedupTTL   time.Duration
	maxPerTick int
	severity   string
	prefix     string
	metrics    statsd.Sink
	logger     *slog.Logger

	mu      sync.Mutex
	seeded  bool
	version uint64
	seen    map[string]struct{}
}

// NewFailureWatcher constructs a FailureWatcher.
func NewFailureWatcher(opts FailureWatcherOptions) (*FailureWatcher, error) {
	sinks := make([]NamedSink, 0, len(opts.Sinks))
	for _, s := range opts.Sinks {
		if s.Sink == nil {
			continue
		}
		if s.Name == "" {
			s.Name = "sink"
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		return nil, errors.New("at least one notification sink is required")
	}
	ttl := opts.DedupTTL
	if ttl <= 0 {
		ttl = DefaultAlertDedupTTL
	}
	maxPerTick := opts.MaxPerTick
	if maxPerTick <= 0 {
		maxPerTick = DefaultMaxAlertsPerTick
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FailureWatcher{
		sinks:      sinks,
		dedup:      opts.Dedup,
		dedupTTL:   ttl,
		maxPerTick: maxPerTick,
		severity:   notify.Fallback(opts.Severity, notify.SeverityCritical),
		prefix:     opts.Prefix,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "failure_watcher"),
		seen:       map[string]struct{}{},
	}, nil
}

// Observe records the failed jobs in snap and sends alerts for the ones not
// present in the previous snapshot. It returns the number of jobs alerted on.
// Sink errors are joined; a failing sink does not stop the others.
func (w *FailureWatcher) Observe(ctx context.Context, snap *Snapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	fresh := w.diff(snap)
	if len(fresh) == 0 {
		return 0, nil
	}
	if len(fresh) > w.maxPerTick {
		w.logger.WarnContext(ctx, "too many new failures, alerting on the first batch only",
			"new_failures", len(fresh),
			"limit", w.maxPerTick,
		)
		fresh = fresh[:w.maxPerTick]
	}

	var (
		sent int
		errs []error
	)
	for _, payload := range fresh {
		if !w.claim(ctx, payload) {
			continue
		}
		sent++
		errs = append(errs, w.fanOut(ctx, payload)...)
	}
	return sent, errors.Join(errs...)
}

// fanOut delivers payload to every sink concurrently. The returned slice has
// one entry per sink, nil on success.
func (w *FailureWatcher) fanOut(ctx context.Context, payload notify.JobFailurePayload) []error {
	errs := make([]error, len(w.sinks))
	var wg sync.WaitGroup
	for i, s := range w.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = w.deliver(ctx, s, payload)
		}()
	}
	wg.Wait()
	return errs
}

func (w *FailureWatcher) deliver(ctx context.Context, s NamedSink, payload notify.JobFailurePayload) error {
	err := s.Sink.SendJobFailure(ctx, payload)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		w.logger.WarnContext(ctx, "failure alert not delivered",
			"sink", s.Name,
			"queue", payload.Queue,
			"job_id", payload.JobID,
			"error", err,
		)
		err = fmt.Errorf("%s: %w", s.Name, err)
	}
	metrics.EmitNotify(w.metrics, metrics.NotifyMetric{
		Sink:   s.Name,
		Queue:  payload.Queue,
		Result: result,
		Err:    err,
	})
	return err
}

// diff swaps in the failed set of snap and returns payloads for the jobs that
// were not failed in the previous snapshot, in row order.
func (w *FailureWatcher) diff(snap *Snapshot) []notify.JobFailurePayload {
	current := make(map[string]struct{})
	var candidates []notify.JobFailurePayload
	for _, row := range snap.Rows {
		if row.CurrentStatus != model.StatusFailed {
			continue
		}
		payload := w.payload(row)
		key := payload.DedupKey()
		current[key] = struct{}{}
		candidates = append(candidates, payload)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seeded && snap.Version != 0 && snap.Version <= w.version {
		return nil
	}
	previous, seeded := w.seen, w.seeded
	w.seen, w.seeded, w.version = current, true, snap.Version
	if !seeded {
		return nil
	}

	fresh := candidates[:0]
	for _, p := range candidates {
		if _, ok := previous[p.DedupKey()]; !ok {
			fresh = append(fresh, p)
		}
	}
	return fresh
}

// claim reserves the alert in the shared cache. Cache errors fall back to sending.
func (w *FailureWatcher) claim(ctx context.Context, payload notify.JobFailurePayload) bool {
	if w.dedup == nil {
		return true
	}
	ok, err := w.dedup.SetIfNotExists(ctx, alertKeyPrefix+payload.DedupKey(), []byte("1"), w.dedupTTL)
	if err != nil {
		w.logger.WarnContext(ctx, "alert dedup unavailable, sending anyway", "error", err)
		return true
	}
	return ok
}

func (w *FailureWatcher) payload(row model.ResolvedJobRow) notify.JobFailurePayload {
	occurred := row.Timestamp
	if row.FinishedOn != nil {
		occurred = *row.FinishedOn
	}
	var meta map[string]string
	if w.prefix != "" {
		meta = map[string]string{"prefix": w.prefix}
	}
	return notify.JobFailurePayload{
		Queue:        row.QueueName,
		JobID:        row.ID,
		JobName:      row.Name,
		Error:        row.FailedReason,
		ErrorClass:   failureClass(row.FailedReason),
		AttemptsMade: row.AttemptsMade,
		Severity:     w.severity,
		OccurredAt:   time.UnixMilli(occurred).UTC(),
		Metadata:     meta,
	}
}

// failureClass extracts an error type name from reasons like
// "TypeError: x is undefined"; other reasons get a generic class.
func failureClass(reason string) string {
	name, _, ok := strings.Cut(strings.TrimSpace(reason), ":")
	if !ok || name == "" || len(name) > maxErrorClassLength {
		return defaultErrorClass
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return defaultErrorClass
		}
	}
	return name
}
