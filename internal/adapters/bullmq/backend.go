package bullmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/bullboard/internal/core"
	"github.com/target/bullboard/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPerState    = 200
	defaultConcurrency = 8
	scanBatch          = 500
)

// Options configures a Backend.
type Options struct {
	Client redis.UniversalClient
	// Prefix is the BullMQ key prefix; defaults to "bull".
	Prefix string
	// PerState caps how many ids are read from each state container.
	PerState int
	// Concurrency bounds how many queues are fetched in parallel.
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Backend reads and operates on BullMQ queues stored in Redis.
type Backend struct {
	client      redis.UniversalClient
	prefix      string
	perState    int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

var _ core.QueueBackend = (*Backend)(nil)

// NewBackend constructs a Backend.
func NewBackend(opts Options) (*Backend, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	b := &Backend{
		client:      opts.Client,
		prefix:      strings.TrimSuffix(strings.TrimSpace(opts.Prefix), ":"),
		perState:    opts.PerState,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if b.prefix == "" {
		b.prefix = DefaultPrefix
	}
	if b.perState <= 0 {
		b.perState = defaultPerState
	}
	if b.concurrency <= 0 {
		b.concurrency = defaultConcurrency
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "bullmq_backend", "prefix", b.prefix)
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// MustNewBackend constructs a Backend and panics on invalid options.
func MustNewBackend(opts Options) *Backend {
	b, err := NewBackend(opts)
	if err != nil {
		panic(err)
	}
	return b
}

// Prefix returns the key prefix in use.
func (b *Backend) Prefix() string { return b.prefix }

func (b *Backend) keys(queue string) keys { return newKeys(b.prefix, queue) }

// Ping checks Redis connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// ListQueues discovers queues from their meta and id-counter keys.
func (b *Backend) ListQueues(ctx context.Context) ([]model.QueueInfo, error) {
	names := map[string]struct{}{}
	for _, suffix := range []string{":meta", ":id"} {
		found, err := b.scanKeys(ctx, b.prefix+":*"+suffix)
		if err != nil {
			return nil, err
		}
		for _, key := range found {
			if name, ok := queueFromKey(key, b.prefix, suffix); ok {
				names[name] = struct{}{}
			}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	slices.Sort(sorted)

	paused, err := b.pausedFlags(ctx, sorted)
	if err != nil {
		return nil, err
	}
	out := make([]model.QueueInfo, 0, len(sorted))
	for i, name := range sorted {
		out = append(out, model.QueueInfo{Name: name, IsPaused: paused[i]})
	}
	return out, nil
}

func (b *Backend) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		mu  sync.Mutex
		out []string
	)
	scan := func(ctx context.Context, c redis.Cmdable) error {
		iter := c.Scan(ctx, 0, pattern, scanBatch).Iterator()
		var local []string
		for iter.Next(ctx) {
			local = append(local, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		mu.Lock()
		out = append(out, local...)
		mu.Unlock()
		return nil
	}

	var err error
	if cc, ok := b.client.(*redis.ClusterClient); ok {
		err = cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scan(ctx, node)
		})
	} else {
		err = scan(ctx, b.client)
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return out, nil
}

func (b *Backend) pausedFlags(ctx context.Context, queues []string) ([]bool, error) {
	if len(queues) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.BoolCmd, len(queues))
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, q := range queues {
			cmds[i] = p.HExists(ctx, b.keys(q).meta(), "paused")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read pause flags: %w", err)
	}
	out := make([]bool, len(queues))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

// ListJobs fetches up to PerState jobs from every requested (queue, state) container.
// Queues are fetched concurrently; the result is ordered by queue, then state, then
// newest first within sorted sets.
func (b *Backend) ListJobs(ctx context.Context, opts core.ListJobsOptions) ([]model.RawJobRecord, error) {
	queues := opts.Queues
	if len(queues) == 0 {
		infos, err := b.ListQueues(ctx)
		if err != nil {
			return nil, err
		}
		for _, q := range infos {
			queues = append(queues, q.Name)
		}
	}

	states, err := b.resolveStates(opts.States)
	if err != nil {
		return nil, err
	}
	perState := opts.PerState
	if perState <= 0 {
		perState = b.perState
	}

	results := make([][]model.RawJobRecord, len(queues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, queue := range queues {
		g.Go(func() error {
			recs, err := b.queueJobs(gctx, queue, states, perState)
			if err != nil {
				return fmt.Errorf("list jobs of %s: %w", queue, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.RawJobRecord, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	b.logger.DebugContext(ctx, "listed jobs", "queues", len(queues), "jobs", len(out))
	return out, nil
}

func (b *Backend) resolveStates(requested []string) ([]container, error) {
	if len(requested) == 0 {
		return containers, nil
	}
	out := make([]container, 0, len(requested))
	for _, s := range requested {
		state, ok := StateForStatus(s)
		if !ok {
			return nil, fmt.Errorf("unknown job state %q", s)
		}
		c, _ := containerFor(state)
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

type stateIDs struct {
	state string
	cmd   *redis.StringSliceCmd
}

func (b *Backend) queueJobs(ctx context.Context, queue string, states []container, perState int) ([]model.RawJobRecord, error) {
	k := b.keys(queue)
	stop := int64(perState - 1)

	idCmds := make([]stateIDs, 0, len(states))
	var pausedCmd *redis.BoolCmd
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range states {
			var cmd *redis.StringSliceCmd
			if c.kind == kindList {
				cmd = p.LRange(ctx, k.state(c.state), 0, stop)
			} else {
				cmd = p.ZRevRange(ctx, k.state(c.state), 0, stop)
			}
			idCmds = append(idCmds, stateIDs{state: c.state, cmd: cmd})
		}
		pausedCmd = p.HExists(ctx, k.meta(), "paused")
		return nil
	})
	if err != nil {
		return nil, err
	}

	type ref struct{ id, state string }
	var refs []ref
	seen := map[string]struct{}{}
	for _, sc := range idCmds {
		for _, id := range sc.cmd.Val() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			refs = append(refs, ref{id: id, state: sc.state})
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	hashCmds := make([]*redis.MapStringStringCmd, len(refs))
	_, err = b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, r := range refs {
			hashCmds[i] = p.HGetAll(ctx, k.job(r.id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	paused := pausedCmd.Val()
	qualified := k.base
	out := make([]model.RawJobRecord, 0, len(refs))
	for i, r := range refs {
		fields := hashCmds[i].Val()
		if len(fields) == 0 {
			// removed between the two round trips
			continue
		}
		rec := recordFromHash(r.id, fields)
		status := StatusForState(r.state)
		rec.Status = &status
		rec.QueueQualifiedName = &qualified
		rec.IsPaused = &paused
		out = append(out, rec)
	}
	return out, nil
}

// GetJob reads one job and locates the container holding it. A job found in
// no container is returned without a status so the resolver infers one.
func (b *Backend) GetJob(ctx context.Context, ref model.JobRef) (*model.RawJobRecord, error) {
	k := b.keys(ref.Queue)
	fields, err := b.client.HGetAll(ctx, k.job(ref.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("get job %s/%s: %w", ref.Queue, ref.ID, model.ErrJobNotFound)
	}

	rec := recordFromHash(ref.ID, fields)
	qualified := k.base
	rec.QueueQualifiedName = &qualified

	state, paused, err := b.locate(ctx, k, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("locate job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if state != "" {
		status := StatusForState(state)
		rec.Status = &status
	}
	rec.IsPaused = &paused
	return &rec, nil
}

func (b *Backend) locate(ctx context.Context, k keys, id string) (string, bool, error) {
	type probe struct {
		state string
		list  *redis.IntCmd
		zset  *redis.FloatCmd
	}
	probes := make([]probe, 0, len(containers))
	var pausedCmd *redis.BoolCmd
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range containers {
			pr := probe{state: c.state}
			if c.kind == kindList {
				pr.list = p.LPos(ctx, k.state(c.state), id, redis.LPosArgs{})
			} else {
				pr.zset = p.ZScore(ctx, k.state(c.state), id)
			}
			probes = append(probes, pr)
		}
		pausedCmd = p.HExists(ctx, k.meta(), "paused")
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false, err
	}
	for _, pr := range probes {
		var perr error
		if pr.list != nil {
			perr = pr.list.Err()
		} else {
			perr = pr.zset.Err()
		}
		if perr == nil {
			return pr.state, pausedCmd.Val(), nil
		}
		if !errors.Is(perr, redis.Nil) {
			return "", false, perr
		}
	}
	return "", pausedCmd.Val(), nil
}

// JobLogs returns the log lines of a job, oldest first.
func (b *Backend) JobLogs(ctx context.Context, ref model.JobRef) ([]string, error) {
	k := b.keys(ref.Queue)
	exists, err := b.client.Exists(ctx, k.job(ref.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("job logs %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("job logs %s/%s: %w", ref.Queue, ref.ID, model.ErrJobNotFound)
	}
	lines, err := b.client.LRange(ctx, k.logs(ref.ID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("job logs %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

// RetryJob moves a failed job back to the wait list (or the paused list when the queue is paused).
func (b *Backend) RetryJob(ctx context.Context, ref model.JobRef) error {
	k := b.keys(ref.Queue)
	lifo := "0"
	if raw, err := b.client.HGet(ctx, k.job(ref.ID), "opts").Result(); err == nil {
		var opts model.JobOptions
		if json.Unmarshal([]byte(raw), &opts) == nil && opts.LIFO {
			lifo = "1"
		}
	}

	res, err := retryJobScript.Run(ctx, b.client, []string{
		k.state(StateFailed),
		k.state(StateWait),
		k.state(StatePaused),
		k.meta(),
		k.job(ref.ID),
		k.events(),
		k.marker(),
	}, ref.ID, lifo).Int()
	if err != nil {
		return fmt.Errorf("retry job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if err := scriptError(res); err != nil {
		return fmt.Errorf("retry job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	b.logger.InfoContext(ctx, "job retried", "queue", ref.Queue, "job_id", ref.ID)
	return nil
}

// DeleteJob removes a job, its logs and every container reference to it.
func (b *Backend) DeleteJob(ctx context.Context, ref model.JobRef) error {
	k := b.keys(ref.Queue)
	keyList := []string{k.job(ref.ID), k.logs(ref.ID), k.lock(ref.ID), k.events()}
	var nlists int
	for _, c := range containers {
		if c.kind == kindList {
			keyList = append(keyList, k.state(c.state))
			nlists++
		}
	}
	for _, c := range containers {
		if c.kind == kindZSet {
			keyList = append(keyList, k.state(c.state))
		}
	}

	res, err := removeJobScript.Run(ctx, b.client, keyList, ref.ID, nlists).Int()
	if err != nil {
		return fmt.Errorf("delete job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	if res == scriptWrongState {
		return fmt.Errorf("delete job %s/%s: %w", ref.Queue, ref.ID, model.ErrJobLocked)
	}
	if err := scriptError(res); err != nil {
		return fmt.Errorf("delete job %s/%s: %w", ref.Queue, ref.ID, err)
	}
	b.logger.InfoContext(ctx, "job deleted", "queue", ref.Queue, "job_id", ref.ID)
	return nil
}

// AddJob stores a new job and places it according to its options.
func (b *Backend) AddJob(ctx context.Context, req model.AddJobRequest) (*model.RawJobRecord, error) {
	k := b.keys(req.Queue)
	ts := b.now().UnixMilli()
	hash, err := hashFromRequest(req, ts)
	if err != nil {
		return nil, fmt.Errorf("add job to %s: %w", req.Queue, err)
	}
	var customID string
	lifo := "0"
	if req.Options != nil {
		customID = req.Options.JobID
		if req.Options.LIFO {
			lifo = "1"
		}
	}

	res, err := addJobScript.Run(ctx, b.client, []string{
		k.counter(),
		k.state(StateWait),
		k.state(StatePaused),
		k.meta(),
		k.state(StateDelayed),
		k.state(StatePrioritized),
		k.priorityCounter(),
		k.events(),
		k.marker(),
	},
		k.base+":",
		customID,
		hash["name"],
		hash["data"],
		hash["opts"],
		hash["timestamp"],
		hash["delay"],
		hash["priority"],
		lifo,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("add job to %s: %w", req.Queue, err)
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("add job to %s: unexpected script reply %v", req.Queue, res)
	}
	code, _ := res[0].(int64)
	id, _ := res[1].(string)
	if code == scriptDuplicateID {
		return nil, fmt.Errorf("add job %s to %s: %w", id, req.Queue, model.ErrJobExists)
	}

	state := StateWait
	if len(res) > 2 {
		if s, ok := res[2].(string); ok {
			state = s
		}
	}
	b.logger.InfoContext(ctx, "job added", "queue", req.Queue, "job_id", id, "state", state)

	rec := recordFromHash(id, stringifyHash(hash))
	status := StatusForState(state)
	qualified := k.base
	rec.Status = &status
	rec.QueueQualifiedName = &qualified
	return &rec, nil
}

func stringifyHash(hash map[string]any) map[string]string {
	out := make(map[string]string, len(hash))
	for key, v := range hash {
		switch t := v.(type) {
		case string:
			out[key] = t
		case int:
			out[key] = strconv.Itoa(t)
		case int64:
			out[key] = strconv.FormatInt(t, 10)
		default:
			out[key] = fmt.Sprint(t)
		}
	}
	return out
}

// SetQueuePaused pauses or resumes a queue.
func (b *Backend) SetQueuePaused(ctx context.Context, queue string, paused bool) error {
	k := b.keys(queue)
	event := "resumed"
	if paused {
		event = "paused"
	}
	err := pauseScript.Run(ctx, b.client, []string{
		k.state(StateWait),
		k.state(StatePaused),
		k.meta(),
		k.events(),
		k.marker(),
	}, event).Err()
	if err != nil {
		return fmt.Errorf("%s queue %s: %w", strings.TrimSuffix(event, "d"), queue, err)
	}
	b.logger.InfoContext(ctx, "queue "+event, "queue", queue)
	return nil
}

// CleanQueue removes every unlocked job of queue in the given states.
func (b *Backend) CleanQueue(ctx context.Context, queue string, states []string) (int, error) {
	if len(states) == 0 {
		return 0, errors.New("at least one state is required")
	}
	resolved, err := b.resolveStates(states)
	if err != nil {
		return 0, err
	}
	k := b.keys(queue)
	var removed int
	for _, c := range resolved {
		kind := "zset"
		if c.kind == kindList {
			kind = "list"
		}
		n, err := cleanScript.Run(ctx, b.client, []string{k.state(c.state), k.events()}, k.base+":", kind).Int()
		if err != nil {
			return removed, fmt.Errorf("clean %s of %s: %w", c.state, queue, err)
		}
		removed += n
	}
	b.logger.InfoContext(ctx, "queue cleaned", "queue", queue, "states", states, "removed", removed)
	return removed, nil
}

func scriptError(code int) error {
	switch code {
	case scriptMissingJob:
		return model.ErrJobNotFound
	case scriptWrongState:
		return model.ErrJobNotFailed
	default:
		return nil
	}
}
