// Package mocks provides mock implementations for testing the board services and handlers.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockQueueBackend(ctrl)
//	backend.EXPECT().ListQueues(gomock.Any()).Return(queues, nil)
package mocks

// Generate mock for QueueBackend interface from internal/core package.
// This creates MockQueueBackend with methods for all QueueBackend interface methods:
// ListQueues, ListJobs, GetJob, RetryJob, DeleteJob, JobLogs, AddJob, SetQueuePaused, CleanQueue, Ping
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=queue_backend_mock.go github.com/target/bullboard/internal/core QueueBackend

// Generate mock for CacheRepository interface (shared snapshot cache and refresh lock).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/bullboard/internal/core CacheRepository
