package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/target/bullboard/internal/core"
	domainjob "github.com/target/bullboard/internal/domain/job"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
	"github.com/target/bullboard/internal/observability/metrics"
	"github.com/target/bullboard/internal/observability/statsd"
)

// MaxPriority is the largest priority BullMQ accepts.
const MaxPriority = 2_097_152

// ActionServiceOptions groups dependencies for ActionService.
type ActionServiceOptions struct {
	Backend  core.QueueBackend  // Required
	Board    *BoardService      // Optional: invalidated after every change
	Resolver domainjob.Resolver // Optional: used by the retry guard
	Errors   *LastErrors        // Optional: shared per-operation error slots
	Metrics  statsd.Sink        // Optional
	Logger   *slog.Logger       // Optional
}

// ActionService runs job and queue operations against the backend. Each
// failure is kept in the operation's error slot until it next succeeds.
type ActionService struct {
	backend  core.QueueBackend
	board    *BoardService
	resolver domainjob.Resolver
	errors   *LastErrors
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewActionService constructs an ActionService.
func NewActionService(opts ActionServiceOptions) (*ActionService, error) {
	if opts.Backend == nil {
		return nil, errors.New("QueueBackend is required")
	}
	lastErrors := opts.Errors
	if lastErrors == nil && opts.Board != nil {
		lastErrors = opts.Board.Errors()
	}
	if lastErrors == nil {
		lastErrors = &LastErrors{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sink statsd.Sink = statsd.Noop{}
	if opts.Metrics != nil {
		sink = opts.Metrics
	}
	return &ActionService{
		backend:  opts.Backend,
		board:    opts.Board,
		resolver: opts.Resolver,
		errors:   lastErrors,
		metrics:  sink,
		logger:   logger.With("component", "action_service"),
	}, nil
}

// MustNewActionService constructs an ActionService and panics on error.
func MustNewActionService(opts ActionServiceOptions) *ActionService {
	s, err := NewActionService(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// LastError returns the message recorded for op, or "".
func (s *ActionService) LastError(op model.Operation) string {
	return s.errors.Get(op)
}

// Errors returns every non-empty error slot.
func (s *ActionService) Errors() map[string]string {
	return s.errors.All()
}

// Retry moves a failed job back to waiting. Jobs in any other state are refused.
func (s *ActionService) Retry(ctx context.Context, ref model.JobRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	return s.run(ctx, model.OpRetry, []any{"queue", ref.Queue, "job_id", ref.ID}, func() error {
		rec, err := s.backend.GetJob(ctx, ref)
		if err != nil {
			return err
		}
		if status := s.resolver.Status(rec); status != model.StatusFailed {
			return apperrors.Conflictf("Only failed jobs can be retried (job %s is %s).", ref.ID, status)
		}
		return s.backend.RetryJob(ctx, ref)
	})
}

// Delete removes a job.
func (s *ActionService) Delete(ctx context.Context, ref model.JobRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	return s.run(ctx, model.OpDelete, []any{"queue", ref.Queue, "job_id", ref.ID}, func() error {
		return s.backend.DeleteJob(ctx, ref)
	})
}

// Logs returns the log lines of a job.
func (s *ActionService) Logs(ctx context.Context, ref model.JobRef) ([]string, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	var lines []string
	err := s.run(ctx, model.OpLogs, []any{"queue", ref.Queue, "job_id", ref.ID}, func() error {
		var err error
		lines, err = s.backend.JobLogs(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

// AddJob validates and enqueues a new job and returns its resolved row.
func (s *ActionService) AddJob(ctx context.Context, req model.AddJobRequest) (model.ResolvedJobRow, error) {
	req.Queue = strings.TrimSpace(req.Queue)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateAddJob(req); err != nil {
		return model.ResolvedJobRow{}, err
	}
	var rec *model.RawJobRecord
	err := s.run(ctx, model.OpAddJob, []any{"queue", req.Queue, "name", req.Name}, func() error {
		var err error
		rec, err = s.backend.AddJob(ctx, req)
		return err
	})
	if err != nil {
		return model.ResolvedJobRow{}, err
	}
	return s.resolver.Resolve(rec), nil
}

// Pause pauses a queue.
func (s *ActionService) Pause(ctx context.Context, queue string) error {
	return s.setPaused(ctx, queue, true)
}

// Resume resumes a paused queue.
func (s *ActionService) Resume(ctx context.Context, queue string) error {
	return s.setPaused(ctx, queue, false)
}

func (s *ActionService) setPaused(ctx context.Context, queue string, paused bool) error {
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return apperrors.ValidationField("queue", "queue is required")
	}
	op := model.OpResume
	if paused {
		op = model.OpPause
	}
	return s.run(ctx, op, []any{"queue", queue}, func() error {
		return s.backend.SetQueuePaused(ctx, queue, paused)
	})
}

// CleanableStatuses lists the statuses a queue can be cleaned of.
func CleanableStatuses() []string {
	return []string{
		model.StatusCompleted,
		model.StatusFailed,
		model.StatusDelayed,
		model.StatusWaiting,
		model.StatusPaused,
		model.StatusPrioritized,
		model.StatusWaitingChildren,
	}
}

// Clean removes every unlocked job of queue in the given statuses and returns how many were removed.
func (s *ActionService) Clean(ctx context.Context, queue string, statuses []string) (int, error) {
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return 0, apperrors.ValidationField("queue", "queue is required")
	}
	normalized, err := normalizeCleanStatuses(statuses)
	if err != nil {
		return 0, err
	}
	var removed int
	err = s.run(ctx, model.OpClean, []any{"queue", queue, "states", normalized}, func() error {
		var err error
		removed, err = s.backend.CleanQueue(ctx, queue, normalized)
		return err
	})
	return removed, err
}

func normalizeCleanStatuses(statuses []string) ([]string, error) {
	allowed := CleanableStatuses()
	out := make([]string, 0, len(statuses))
	for _, raw := range statuses {
		st := strings.ToLower(strings.TrimSpace(raw))
		if st == "" {
			continue
		}
		if !slices.Contains(allowed, st) {
			return nil, apperrors.ValidationField("states",
				fmt.Sprintf("cannot clean %q jobs (valid: %s)", st, strings.Join(allowed, ", ")))
		}
		if !slices.Contains(out, st) {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.ValidationField("states", "at least one state is required")
	}
	return out, nil
}

// run executes one backend operation, maps its error and maintains the
// operation's error slot, log line and metrics. Successful changes invalidate
// the board snapshot.
func (s *ActionService) run(ctx context.Context, op model.Operation, attrs []any, fn func() error) error {
	started := time.Now()
	err := fn()
	elapsed := time.Since(started)
	if err != nil {
		err = apperrors.MapBackendError(err)
		s.errors.Record(op, err)
		s.logger.WarnContext(ctx, "board action failed", append(attrs, "operation", string(op), "error", err)...)
		metrics.EmitAction(s.metrics, metrics.ActionMetric{
			Operation: string(op),
			Result:    metrics.ResultError,
			Duration:  elapsed,
			Err:       err,
		})
		return err
	}
	s.errors.Clear(op)
	metrics.EmitAction(s.metrics, metrics.ActionMetric{
		Operation: string(op),
		Result:    metrics.ResultSuccess,
		Duration:  elapsed,
	})
	if op != model.OpLogs {
		s.logger.InfoContext(ctx, "board action", append(attrs, "operation", string(op))...)
		if s.board != nil {
			s.board.Invalidate(ctx)
		}
	}
	return nil
}

func validateRef(ref model.JobRef) error {
	if strings.TrimSpace(ref.Queue) == "" {
		return apperrors.ValidationField("queue", "queue is required")
	}
	if strings.TrimSpace(ref.ID) == "" {
		return apperrors.ValidationField("id", "job id is required")
	}
	return nil
}

func validateAddJob(req model.AddJobRequest) error {
	if req.Queue == "" {
		return apperrors.ValidationField("queue", "queue is required")
	}
	if req.Name == "" {
		return apperrors.ValidationField("name", "job name is required")
	}
	opts := req.Options
	if opts == nil {
		return nil
	}
	if opts.JobID != "" {
		// integer ids collide with the queue's own counter
		if _, err := strconv.ParseInt(opts.JobID, 10, 64); err == nil {
			return apperrors.ValidationField("jobId", "custom job id cannot be an integer")
		}
		if strings.Contains(opts.JobID, ":") {
			return apperrors.ValidationField("jobId", "custom job id cannot contain ':'")
		}
	}
	if opts.Delay < 0 {
		return apperrors.ValidationField("delay", "delay cannot be negative")
	}
	if opts.Priority < 0 || opts.Priority > MaxPriority {
		return apperrors.ValidationField("priority", fmt.Sprintf("priority must be between 0 and %d", MaxPriority))
	}
	if opts.Attempts < 0 {
		return apperrors.ValidationField("attempts", "attempts cannot be negative")
	}
	if opts.Backoff != nil && opts.Backoff.Delay < 0 {
		return apperrors.ValidationField("backoff", "backoff delay cannot be negative")
	}
	return nil
}
