// Package metrics emits the board's StatsD metrics.
package metrics

import (
	"time"

	obserrors "github.com/target/bullboard/internal/observability/errors"
	"github.com/target/bullboard/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// ActionMetric describes one backend operation triggered from the board.
type ActionMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitAction records board.action and, when timed, board.action.duration.
func EmitAction(sink statsd.Sink, in ActionMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("board.action", 1, tags)
	if in.Duration > 0 {
		sink.Timing("board.action.duration", in.Duration, CloneTags(tags))
	}
}

// SnapshotMetric describes one snapshot fetch.
type SnapshotMetric struct {
	Source   string
	Result   string
	Duration time.Duration
	Jobs     int
	Queues   int
	Err      error
}

// EmitSnapshot records board.snapshot timing and, on success, job and queue gauges.
func EmitSnapshot(sink statsd.Sink, in SnapshotMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"source": in.Source,
		"result": in.Result,
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Timing("board.snapshot", in.Duration, tags)
	if in.Result == ResultSuccess {
		sink.Gauge("board.jobs", float64(in.Jobs), nil)
		sink.Gauge("board.queues", float64(in.Queues), nil)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// NotifyMetric describes one failure alert delivery attempt.
type NotifyMetric struct {
	Sink   string
	Queue  string
	Result string
	Err    error
}

// EmitNotify records board.notify per sink and outcome.
func EmitNotify(sink statsd.Sink, in NotifyMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"sink":   in.Sink,
		"queue":  in.Queue,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("board.notify", 1, tags)
}
