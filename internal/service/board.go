package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/target/bullboard/internal/core"
	domainjob "github.com/target/bullboard/internal/domain/job"
	"github.com/target/bullboard/internal/domain/jobview"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
	"github.com/target/bullboard/internal/observability/metrics"
	"github.com/target/bullboard/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultSnapshotTTL is how long a fetched snapshot is served before the next read refetches it.
const DefaultSnapshotTTL = 2 * time.Second

// DefaultFetchTimeout bounds one backend fetch.
const DefaultFetchTimeout = 30 * time.Second

const (
	snapshotCacheKey      = "snapshot"
	snapshotSourceBackend = "backend"
	snapshotSourceShared  = "shared"
)

// BoardConfig holds board tunables.
type BoardConfig struct {
	// Queues, when non-empty, is the authoritative queue list.
	Queues      []model.QueueRef
	Prefix      string
	Fallback    domainjob.StatusFallback
	SnapshotTTL time.Duration
	// FetchTimeout bounds a shared fetch; it is not tied to any caller's context.
	FetchTimeout time.Duration
	PerState     int
	// Location is used for timestamps in job details; nil means UTC.
	Location *time.Location
}

// BoardServiceOptions groups dependencies for BoardService.
type BoardServiceOptions struct {
	Backend core.QueueBackend    // Required
	Config  BoardConfig          // Optional: zero value uses defaults
	Cache   core.CacheRepository // Optional: shares snapshots between replicas
	Errors  *LastErrors          // Optional: shared per-operation error slots
	Metrics statsd.Sink          // Optional
	Logger  *slog.Logger         // Optional
	Now     func() time.Time     // Optional: defaults to time.Now
}

// Snapshot is one consistent read of the backend with its resolved rows.
// Snapshots are immutable once published.
type Snapshot struct {
	Version   uint64
	FetchedAt time.Time
	// Queues is the external queue list: the configured queues, or the backend's.
	Queues []model.QueueInfo
	Rows   []model.ResolvedJobRow
}

// sharedSnapshot is the form stored in the shared cache. Records are resolved
// again by the reader against its own clock.
type sharedSnapshot struct {
	FetchedAt time.Time            `json:"fetchedAt"`
	Queues    []model.QueueInfo    `json:"queues"`
	Records   []model.RawJobRecord `json:"records"`
}

type pageMemo struct {
	version uint64
	key     string
	page    model.JobPage
}

// BoardService serves the job board: it fetches snapshots from the queue
// backend, caches them for a short TTL, and builds filtered pages from them.
// It is safe for concurrent use.
type BoardService struct {
	backend  core.QueueBackend
	cache    core.CacheRepository
	cfg      BoardConfig
	resolver domainjob.Resolver
	errors   *LastErrors
	metrics  statsd.Sink
	logger   *slog.Logger
	now      func() time.Time

	refreshes singleflight.Group

	mu      sync.RWMutex
	snap    *Snapshot
	stale   bool
	version uint64
	lastErr string
	memo    *pageMemo
}

// NewBoardService constructs a BoardService.
func NewBoardService(opts BoardServiceOptions) (*BoardService, error) {
	if opts.Backend == nil {
		return nil, errors.New("QueueBackend is required")
	}
	cfg := opts.Config
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Fallback == "" {
		cfg.Fallback = domainjob.FallbackWaiting
	}
	if !cfg.Fallback.Valid() {
		return nil, fmt.Errorf("invalid status fallback %q", cfg.Fallback)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lastErrors := opts.Errors
	if lastErrors == nil {
		lastErrors = &LastErrors{}
	}
	var sink statsd.Sink = statsd.Noop{}
	if opts.Metrics != nil {
		sink = opts.Metrics
	}

	s := &BoardService{
		backend: opts.Backend,
		cache:   opts.Cache,
		cfg:     cfg,
		resolver: domainjob.Resolver{
			Now:      now,
			Fallback: cfg.Fallback,
			Prefix:   cfg.Prefix,
		},
		errors:  lastErrors,
		metrics: sink,
		logger:  logger.With("component", "board_service"),
		now:     now,
	}
	s.logger.Debug("BoardService initialized",
		"snapshot_ttl", cfg.SnapshotTTL,
		"configured_queues", len(cfg.Queues),
		"shared_cache", opts.Cache != nil,
	)
	return s, nil
}

// MustNewBoardService constructs a BoardService and panics on error.
func MustNewBoardService(opts BoardServiceOptions) *BoardService {
	s, err := NewBoardService(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Resolver returns the resolver used for snapshot rows.
func (s *BoardService) Resolver() domainjob.Resolver { return s.resolver }

// Errors returns the per-operation error slots.
func (s *BoardService) Errors() *LastErrors { return s.errors }

// LastError returns the message of the last failed refresh, or "".
func (s *BoardService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Refresh fetches a new snapshot from the backend. Concurrent calls share one
// fetch, which runs detached from the callers and is bounded by FetchTimeout;
// a caller whose ctx ends stops waiting without cancelling the others. On
// failure the previous snapshot stays in place and the error is recorded.
func (s *BoardService) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, apperrors.MapBackendError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		snap, _ := res.Val.(*Snapshot)
		return snap, nil
	}
}

// Invalidate marks the current snapshot stale so the next read refetches it.
func (s *BoardService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, snapshotCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to drop shared snapshot", "error", err)
	}
}

// Current returns a fresh-enough snapshot. When a refresh fails and an older
// snapshot exists, the older one is returned without an error; the failure is
// available from LastError.
func (s *BoardService) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap, stale := s.snap, s.stale
	s.mu.RUnlock()

	if snap != nil && !stale && s.now().Sub(snap.FetchedAt) < s.cfg.SnapshotTTL {
		return snap, nil
	}
	if !stale {
		if shared := s.loadShared(ctx, snap); shared != nil {
			return shared, nil
		}
	}

	fresh, err := s.Refresh(ctx)
	if err != nil {
		if snap != nil {
			return snap, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *BoardService) fetch(ctx context.Context) (*Snapshot, error) {
	started := time.Now()
	queues, records, err := s.fetchBackend(ctx)
	if err != nil {
		err = apperrors.MapBackendError(err)
		s.mu.Lock()
		s.lastErr = errorMessage(err)
		s.mu.Unlock()
		s.errors.Record(model.OpRefresh, err)
		s.logger.WarnContext(ctx, "snapshot refresh failed", "error", err)
		metrics.EmitSnapshot(s.metrics, metrics.SnapshotMetric{
			Source:   snapshotSourceBackend,
			Result:   metrics.ResultError,
			Duration: time.Since(started),
			Err:      err,
		})
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}

	fetchedAt := s.now()
	snap := s.install(queues, records, fetchedAt)
	s.errors.Clear(model.OpRefresh)
	metrics.EmitSnapshot(s.metrics, metrics.SnapshotMetric{
		Source:   snapshotSourceBackend,
		Result:   metrics.ResultSuccess,
		Duration: time.Since(started),
		Jobs:     len(snap.Rows),
		Queues:   len(snap.Queues),
	})
	s.logger.DebugContext(ctx, "snapshot refreshed",
		"version", snap.Version,
		"jobs", len(snap.Rows),
		"queues", len(snap.Queues),
	)
	s.publish(ctx, sharedSnapshot{FetchedAt: fetchedAt, Queues: snap.Queues, Records: records})
	return snap, nil
}

// fetchBackend reads the queue list and the job list concurrently.
func (s *BoardService) fetchBackend(ctx context.Context) ([]model.QueueInfo, []model.RawJobRecord, error) {
	configured := model.QueueInfosFromRefs(s.cfg.Queues)
	names := make([]string, 0, len(configured))
	for _, q := range configured {
		names = append(names, q.Name)
	}

	var (
		backendQueues []model.QueueInfo
		records       []model.RawJobRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		backendQueues, err = s.backend.ListQueues(gctx)
		if err != nil {
			return fmt.Errorf("list queues: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.backend.ListJobs(gctx, core.ListJobsOptions{Queues: names, PerState: s.cfg.PerState})
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mergeQueues(configured, backendQueues), records, nil
}

// mergeQueues keeps the configured list and order when there is one, taking
// the pause state from the backend where it knows the queue.
func mergeQueues(configured, backend []model.QueueInfo) []model.QueueInfo {
	if len(configured) == 0 {
		if backend == nil {
			return []model.QueueInfo{}
		}
		return backend
	}
	paused := make(map[string]bool, len(backend))
	for _, q := range backend {
		paused[q.Name] = q.IsPaused
	}
	out := make([]model.QueueInfo, len(configured))
	for i, q := range configured {
		if p, ok := paused[q.Name]; ok {
			q.IsPaused = p
		}
		out[i] = q
	}
	return out
}

func (s *BoardService) install(queues []model.QueueInfo, records []model.RawJobRecord, fetchedAt time.Time) *Snapshot {
	rows := s.resolver.ResolveAll(records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	snap := &Snapshot{
		Version:   s.version,
		FetchedAt: fetchedAt,
		Queues:    queues,
		Rows:      rows,
	}
	s.snap = snap
	s.stale = false
	s.lastErr = ""
	s.memo = nil
	return snap
}

func (s *BoardService) publish(ctx context.Context, shared sharedSnapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(shared)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode shared snapshot", "error", err)
		return
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, payload, s.cfg.SnapshotTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to publish shared snapshot", "error", err)
	}
}

// loadShared installs the shared snapshot when it is newer than current and within the TTL.
func (s *BoardService) loadShared(ctx context.Context, current *Snapshot) *Snapshot {
	if s.cache == nil {
		return nil
	}
	started := time.Now()
	payload, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read shared snapshot", "error", err)
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	var shared sharedSnapshot
	if err := json.Unmarshal(payload, &shared); err != nil {
		s.logger.WarnContext(ctx, "failed to decode shared snapshot", "error", err)
		return nil
	}
	if s.now().Sub(shared.FetchedAt) >= s.cfg.SnapshotTTL {
		return nil
	}
	if current != nil && !shared.FetchedAt.After(current.FetchedAt) {
		return nil
	}
	if shared.Queues == nil {
		shared.Queues = []model.QueueInfo{}
	}
	snap := s.install(shared.Queues, shared.Records, shared.FetchedAt)
	metrics.EmitSnapshot(s.metrics, metrics.SnapshotMetric{
		Source:   snapshotSourceShared,
		Result:   metrics.ResultSuccess,
		Duration: time.Since(started),
		Jobs:     len(snap.Rows),
		Queues:   len(snap.Queues),
	})
	return snap
}

// Jobs builds the requested page. The last page built is memoized on the
// snapshot version and the filter key.
func (s *BoardService) Jobs(ctx context.Context, f model.FilterState) (model.JobPage, error) {
	if err := validateFilter(f); err != nil {
		return model.JobPage{}, err
	}
	snap, err := s.Current(ctx)
	if err != nil {
		return model.JobPage{}, err
	}

	key := f.Key()
	s.mu.RLock()
	memo := s.memo
	s.mu.RUnlock()
	if memo != nil && memo.version == snap.Version && memo.key == key {
		return memo.page, nil
	}

	page := jobview.Build(snap.Rows, f)
	s.mu.Lock()
	s.memo = &pageMemo{version: snap.Version, key: key, page: page}
	s.mu.Unlock()
	return page, nil
}

func validateFilter(f model.FilterState) error {
	if f.SortColumn != "" && !model.IsSortableColumn(f.SortColumn) {
		return apperrors.ValidationField("sort", fmt.Sprintf("unknown sort column %q", f.SortColumn))
	}
	if f.DataQuery != "" {
		if err := jobview.ValidateDataQuery(f.DataQuery); err != nil {
			return apperrors.ValidationField("data_query", err.Error())
		}
	}
	return nil
}

// Overview returns the filter options and counts for the current snapshot.
func (s *BoardService) Overview(ctx context.Context) (model.BoardOverview, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return model.BoardOverview{}, err
	}
	return model.BoardOverview{
		Statuses:  jobview.Statuses(snap.Rows),
		Queues:    jobview.QueueNames(snap.Queues, snap.Rows),
		Counts:    jobview.QueueStatusCounts(snap.Rows),
		TotalJobs: len(snap.Rows),
		FetchedAt: snap.FetchedAt,
		LastError: s.LastError(),
		Errors:    s.errors.All(),
	}, nil
}

// Queues returns the queue-management summaries.
func (s *BoardService) Queues(ctx context.Context) ([]model.QueueSummary, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return jobview.Summaries(snap.Queues, snap.Rows), nil
}

// Insights returns the status distribution of the current snapshot.
func (s *BoardService) Insights(ctx context.Context) (model.Insights, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return model.Insights{}, err
	}
	return jobview.Insights(snap.Rows), nil
}

// Detail reads one job from the backend and builds its detail view.
func (s *BoardService) Detail(ctx context.Context, ref model.JobRef) (model.JobDetail, error) {
	if err := validateRef(ref); err != nil {
		return model.JobDetail{}, err
	}
	rec, err := s.backend.GetJob(ctx, ref)
	if err != nil {
		err = apperrors.MapBackendError(err)
		s.errors.Record(model.OpGetJob, err)
		return model.JobDetail{}, fmt.Errorf("get job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	s.errors.Clear(model.OpGetJob)
	row := s.resolver.Resolve(rec)
	if row.ID == "" {
		row.ID = ref.ID
	}
	return BuildDetail(row, s.cfg.Location), nil
}
