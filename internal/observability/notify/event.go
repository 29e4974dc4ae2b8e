// Package notify defines the failure alert payload shared by outbound sinks.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// JobFailurePayload describes one job that entered the failed state.
type JobFailurePayload struct {
	Queue        string
	JobID        string
	JobName      string
	Error        string
	ErrorClass   string
	AttemptsMade int
	Severity     string
	OccurredAt   time.Time
	Metadata     map[string]string
}

// DedupKey identifies the alert; the same job failing again after a retry
// yields a new key because OccurredAt changes.
func (p JobFailurePayload) DedupKey() string {
	key := p.Queue + ":" + p.JobID
	if !p.OccurredAt.IsZero() {
		key += ":" + p.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	return key
}

// Sink describes a destination capable of consuming job failure notifications.
type Sink interface {
	SendJobFailure(ctx context.Context, payload JobFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload JobFailurePayload) error

// SendJobFailure implements the Sink interface.
func (f SinkFunc) SendJobFailure(ctx context.Context, payload JobFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
