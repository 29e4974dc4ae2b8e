// Package model defines the core data types shared by the bullboard resolvers, view builder and adapters.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Canonical job statuses produced by the status resolver.
const (
	StatusWaiting         = "waiting"
	StatusActive          = "active"
	StatusCompleted       = "completed"
	StatusFailed          = "failed"
	StatusDelayed         = "delayed"
	StatusPaused          = "paused"
	StatusWaitingChildren = "waiting-children"
	StatusPrioritized     = "prioritized"
	StatusUnknown         = "unknown"
)

// UnknownQueue is the display name used when no queue identity can be derived.
const UnknownQueue = "unknown"

// DefaultStatuses lists the statuses always offered by the status filter control.
func DefaultStatuses() []string {
	return []string{
		StatusWaiting,
		StatusActive,
		StatusCompleted,
		StatusFailed,
		StatusDelayed,
		StatusPaused,
		StatusWaitingChildren,
	}
}

// Backend errors for job operations whose preconditions do not hold.
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotFailed = errors.New("job is not in the failed state")
	ErrJobLocked    = errors.New("job is locked by a worker")
	ErrJobExists    = errors.New("job id already exists")
)

// RawJobRecord is a job as produced by the queue backend or a caller.
// Every field is optional; resolvers branch on which ones are present.
type RawJobRecord struct {
	ID                 *string         `json:"id,omitempty"`
	Name               *string         `json:"name,omitempty"`
	Timestamp          *int64          `json:"timestamp,omitempty"`
	ProcessedOn        *int64          `json:"processedOn,omitempty"`
	FinishedOn         *int64          `json:"finishedOn,omitempty"`
	FailedReason       *string         `json:"failedReason,omitempty"`
	Stacktrace         []string        `json:"stacktrace,omitempty"`
	Delay              *int64          `json:"delay,omitempty"`
	Status             *string         `json:"status,omitempty"`
	QueueName          *string         `json:"queueName,omitempty"`
	QueueQualifiedName *string         `json:"queueQualifiedName,omitempty"`
	Queue              *QueueRef       `json:"queue,omitempty"`
	Data               json.RawMessage `json:"data,omitempty"`
	Opts               json.RawMessage `json:"opts,omitempty"`
	AttemptsMade       *int            `json:"attemptsMade,omitempty"`
	Progress           json.RawMessage `json:"progress,omitempty"`
	ReturnValue        json.RawMessage `json:"returnvalue,omitempty"`
	Parent             json.RawMessage `json:"parent,omitempty"`
	IsPaused           *bool           `json:"isPaused,omitempty"`
}

// UnmarshalJSON accepts both "returnvalue" and "returnValue" spellings.
func (r *RawJobRecord) UnmarshalJSON(b []byte) error {
	type plain RawJobRecord
	var aux struct {
		plain
		ReturnValueAlt json.RawMessage `json:"returnValue,omitempty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return fmt.Errorf("decode job record: %w", err)
	}
	*r = RawJobRecord(aux.plain)
	if !HasValue(r.ReturnValue) && HasValue(aux.ReturnValueAlt) {
		r.ReturnValue = aux.ReturnValueAlt
	}
	return nil
}

// IDValue returns the record id or an empty string.
func (r *RawJobRecord) IDValue() string {
	if r == nil || r.ID == nil {
		return ""
	}
	return *r.ID
}

// HasParent reports whether the record references a parent job.
func (r *RawJobRecord) HasParent() bool {
	return r != nil && HasValue(r.Parent)
}

// HasValue reports whether a raw JSON value is present and not null.
func HasValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ResolvedJobRow is the display-ready projection of a RawJobRecord.
// Rows are rebuilt for every snapshot and never mutated in place.
type ResolvedJobRow struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Timestamp     int64           `json:"timestamp"`
	ProcessedOn   *int64          `json:"processedOn,omitempty"`
	FinishedOn    *int64          `json:"finishedOn,omitempty"`
	CurrentStatus string          `json:"currentStatus"`
	QueueName     string          `json:"queueName"`
	Data          json.RawMessage `json:"data,omitempty"`
	Opts          json.RawMessage `json:"opts,omitempty"`
	FailedReason  string          `json:"failedReason,omitempty"`
	Stacktrace    []string        `json:"stacktrace,omitempty"`
	AttemptsMade  int             `json:"attemptsMade"`
	Delay         *int64          `json:"delay,omitempty"`
	Progress      json.RawMessage `json:"progress,omitempty"`
	ReturnValue   json.RawMessage `json:"returnvalue,omitempty"`
	Original      *RawJobRecord   `json:"-"`
}

// Key returns the row key used by the table. Ids are only unique per queue.
func (r ResolvedJobRow) Key() string {
	return r.ID
}

// CanRetry reports whether a manual retry is allowed for the row.
func (r ResolvedJobRow) CanRetry() bool {
	return r.CurrentStatus == StatusFailed
}
