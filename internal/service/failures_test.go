package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/mocks"
	"github.com/target/bullboard/internal/observability/notify"
	"go.uber.org/mock/gomock"
)

type capturingSink struct {
	mu    sync.Mutex
	got   []notify.JobFailurePayload
	err   error
	calls int
}

func (s *capturingSink) SendJobFailure(_ context.Context, p notify.JobFailurePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, p)
	return nil
}

func failedRow(id, queue string, finished int64) model.ResolvedJobRow {
	return model.ResolvedJobRow{
		ID:            id,
		Name:          "job-" + id,
		Timestamp:     finished - 100,
		FinishedOn:    ptr(finished),
		CurrentStatus: model.StatusFailed,
		QueueName:     queue,
		FailedReason:  "TypeError: boom",
		AttemptsMade:  3,
	}
}

func snapshotOf(version uint64, rows ...model.ResolvedJobRow) *Snapshot {
	return &Snapshot{Version: version, Rows: rows}
}

func newWatcher(t *testing.T, opts FailureWatcherOptions) (*FailureWatcher, *capturingSink) {
	t.Helper()
	sink := &capturingSink{}
	if len(opts.Sinks) == 0 {
		opts.Sinks = []NamedSink{{Name: "capture", Sink: sink}}
	}
	w, err := NewFailureWatcher(opts)
	require.NoError(t, err)
	return w, sink
}

func TestNewFailureWatcher_RequiresSink(t *testing.T) {
	_, err := NewFailureWatcher(FailureWatcherOptions{})
	require.Error(t, err)

	_, err = NewFailureWatcher(FailureWatcherOptions{Sinks: []NamedSink{{Name: "nil"}}})
	require.Error(t, err)

	w, err := NewFailureWatcher(FailureWatcherOptions{Sinks: []NamedSink{
		{Sink: notify.SinkFunc(func(context.Context, notify.JobFailurePayload) error { return nil })},
	}})
	require.NoError(t, err)
	assert.Equal(t, "sink", w.sinks[0].Name)
	assert.Equal(t, DefaultMaxAlertsPerTick, w.maxPerTick)
	assert.Equal(t, DefaultAlertDedupTTL, w.dedupTTL)
}

func TestFailureWatcher_BaselineThenNewFailures(t *testing.T) {
	w, sink := newWatcher(t, FailureWatcherOptions{Prefix: "bull"})
	ctx := context.Background()

	sent, err := w.Observe(ctx, snapshotOf(1, failedRow("1", "emails", 1000)))
	require.NoError(t, err)
	assert.Zero(t, sent, "the first snapshot is the baseline")

	active := model.ResolvedJobRow{ID: "3", QueueName: "emails", CurrentStatus: model.StatusActive}
	sent, err = w.Observe(ctx, snapshotOf(2, failedRow("1", "emails", 1000), failedRow("2", "reports", 2000), active))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sink.got, 1)

	got := sink.got[0]
	assert.Equal(t, "reports", got.Queue)
	assert.Equal(t, "2", got.JobID)
	assert.Equal(t, "job-2", got.JobName)
	assert.Equal(t, "TypeError", got.ErrorClass)
	assert.Equal(t, 3, got.AttemptsMade)
	assert.Equal(t, notify.SeverityCritical, got.Severity)
	assert.Equal(t, time.UnixMilli(2000).UTC(), got.OccurredAt)
	assert.Equal(t, map[string]string{"prefix": "bull"}, got.Metadata)

	sent, err = w.Observe(ctx, snapshotOf(3, failedRow("1", "emails", 1000), failedRow("2", "reports", 2000)))
	require.NoError(t, err)
	assert.Zero(t, sent, "already alerted failures stay quiet")
}

func TestFailureWatcher_RefailAfterRetryAlertsAgain(t *testing.T) {
	w, sink := newWatcher(t, FailureWatcherOptions{})
	ctx := context.Background()

	_, _ = w.Observe(ctx, snapshotOf(1, failedRow("1", "emails", 1000)))
	_, _ = w.Observe(ctx, snapshotOf(2))
	sent, err := w.Observe(ctx, snapshotOf(3, failedRow("1", "emails", 5000)))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sink.got, 1)
}

func TestFailureWatcher_IgnoresStaleSnapshots(t *testing.T) {
	w, sink := newWatcher(t, FailureWatcherOptions{})
	ctx := context.Background()

	_, _ = w.Observe(ctx, snapshotOf(5))
	sent, err := w.Observe(ctx, snapshotOf(4, failedRow("1", "emails", 1000)))
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sink.got)

	sent, _ = w.Observe(ctx, nil)
	assert.Zero(t, sent)
}

func TestFailureWatcher_CapsAlertsPerTick(t *testing.T) {
	w, sink := newWatcher(t, FailureWatcherOptions{MaxPerTick: 2})
	ctx := context.Background()

	_, _ = w.Observe(ctx, snapshotOf(1))
	sent, err := w.Observe(ctx, snapshotOf(2,
		failedRow("1", "emails", 1000),
		failedRow("2", "emails", 1000),
		failedRow("3", "emails", 1000),
	))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, sink.got, 2)
}

func TestFailureWatcher_JoinsSinkErrors(t *testing.T) {
	broken := &capturingSink{err: errors.New("webhook 500")}
	healthy := &capturingSink{}
	w, _ := newWatcher(t, FailureWatcherOptions{Sinks: []NamedSink{
		{Name: "slack", Sink: broken},
		{Name: "pagerduty", Sink: healthy},
	}})
	ctx := context.Background()

	_, _ = w.Observe(ctx, snapshotOf(1))
	sent, err := w.Observe(ctx, snapshotOf(2, failedRow("1", "emails", 1000)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack: webhook 500")
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, broken.calls)
	assert.Len(t, healthy.got, 1, "a failing sink does not block the others")
}

func TestFailureWatcher_SharedDedup(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	w, sink := newWatcher(t, FailureWatcherOptions{Dedup: cache, DedupTTL: time.Hour})
	ctx := context.Background()

	first := failedRow("1", "emails", 1000)
	second := failedRow("2", "emails", 2000)
	third := failedRow("3", "emails", 3000)

	key := func(row model.ResolvedJobRow) string {
		return alertKeyPrefix + notify.JobFailurePayload{
			Queue: row.QueueName, JobID: row.ID, OccurredAt: time.UnixMilli(*row.FinishedOn).UTC(),
		}.DedupKey()
	}
	cache.EXPECT().SetIfNotExists(gomock.Any(), key(first), []byte("1"), time.Hour).Return(true, nil)
	cache.EXPECT().SetIfNotExists(gomock.Any(), key(second), []byte("1"), time.Hour).Return(false, nil)
	cache.EXPECT().SetIfNotExists(gomock.Any(), key(third), []byte("1"), time.Hour).Return(false, errors.New("down"))

	_, _ = w.Observe(ctx, snapshotOf(1))
	sent, err := w.Observe(ctx, snapshotOf(2, first, second, third))
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "claimed elsewhere is skipped, cache errors still send")
	require.Len(t, sink.got, 2)
	assert.Equal(t, "1", sink.got[0].JobID)
	assert.Equal(t, "3", sink.got[1].JobID)
}

func TestFailureClass(t *testing.T) {
	tests := map[string]string{
		"TypeError: x is undefined":  "TypeError",
		"errors.Timeout: took 5s":    "errors.Timeout",
		"job stalled more than once": defaultErrorClass,
		"connection refused: dial":   defaultErrorClass,
		"":                           defaultErrorClass,
		": nothing":                  defaultErrorClass,
	}
	for reason, want := range tests {
		assert.Equal(t, want, failureClass(reason), reason)
	}
}

func TestRefresher_TickFeedsFailureWatcher(t *testing.T) {
	f := newBoardFixture(t, BoardConfig{}, false)
	w, sink := newWatcher(t, FailureWatcherOptions{})

	r, err := NewRefresher(RefresherOptions{Board: f.svc, Failures: w})
	require.NoError(t, err)
	assert.Equal(t, DefaultAlertTimeout, r.alertTimeout)

	f.expectFetch(nil, sampleRecords())
	require.NoError(t, r.Tick(context.Background()))
	assert.Empty(t, sink.got)

	f.expectFetch(nil, append(sampleRecords(), record("4", "reports", model.StatusFailed, 4000)))
	f.svc.Invalidate(context.Background())
	require.NoError(t, r.Tick(context.Background()))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "4", sink.got[0].JobID)
	assert.Equal(t, "reports", sink.got[0].Queue)
}
