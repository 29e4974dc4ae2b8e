// Package core defines the ports between the board services and the queue backend.
package core

import (
	"context"

	"github.com/target/bullboard/internal/domain/model"
)

// This file contains the backend interface definitions (ports in hexagonal architecture).
// Services depend on these interfaces; internal/adapters provides the implementations.

// ListJobsOptions groups parameters for QueueBackend.ListJobs.
type ListJobsOptions struct {
	// Queues limits the fetch to these queue names. Empty means every queue the backend knows.
	Queues []string
	// States limits the fetch to these BullMQ states. Empty means all fetchable states.
	States []string
	// PerState caps the number of jobs read from each (queue, state) container. Zero means the backend default.
	PerState int
}

// QueueBackend is the queue system the board reads from and operates on.
// One method per operation; every failure comes back as an error value.
type QueueBackend interface {
	// ListQueues returns the queues known to the backend with their pause state.
	ListQueues(ctx context.Context) ([]model.QueueInfo, error)
	// ListJobs returns raw job records, each tagged with its queue and container state.
	ListJobs(ctx context.Context, opts ListJobsOptions) ([]model.RawJobRecord, error)
	// GetJob returns a single job or an error wrapping model.ErrJobNotFound.
	GetJob(ctx context.Context, ref model.JobRef) (*model.RawJobRecord, error)
	// RetryJob moves a failed job back to the wait list.
	RetryJob(ctx context.Context, ref model.JobRef) error
	// DeleteJob removes a job and its logs.
	DeleteJob(ctx context.Context, ref model.JobRef) error
	// JobLogs returns the log lines recorded for a job.
	JobLogs(ctx context.Context, ref model.JobRef) ([]string, error)
	// AddJob enqueues a new job and returns the stored record.
	AddJob(ctx context.Context, req model.AddJobRequest) (*model.RawJobRecord, error)
	// SetQueuePaused pauses or resumes a queue.
	SetQueuePaused(ctx context.Context, queue string, paused bool) error
	// CleanQueue removes every job of queue in the given states and returns how many were removed.
	CleanQueue(ctx context.Context, queue string, states []string) (int, error)
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
}
