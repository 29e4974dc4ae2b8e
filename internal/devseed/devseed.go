// Package devseed fills a development Redis with demo BullMQ jobs so the
// board has something to show.
package devseed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/bullboard/internal/core"
	"github.com/target/bullboard/internal/domain/model"
)

// Result summarises a seeding run.
type Result struct {
	Created int
	Skipped int
}

// Run adds the demo jobs to backend. Jobs carry fixed ids, so running it
// again skips the ones already present.
func Run(ctx context.Context, backend core.QueueBackend, logger *slog.Logger) (Result, error) {
	if backend == nil {
		return Result{}, errors.New("queue backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	failures := 0
	for _, req := range DemoJobs() {
		created, err := addJob(ctx, backend, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed job",
				"queue", req.Queue, "name", req.Name, "error", err)
			failures++
			continue
		}
		msg := "job already exists"
		if created {
			msg = "seeded job"
			res.Created++
		} else {
			res.Skipped++
		}
		logger.InfoContext(ctx, msg, "queue", req.Queue, "job_id", req.Options.JobID)
	}

	if failures > 0 {
		return res, fmt.Errorf("%d seed errors; check logs", failures)
	}
	return res, nil
}

func addJob(ctx context.Context, backend core.QueueBackend, req model.AddJobRequest) (bool, error) {
	if _, err := backend.AddJob(ctx, req); err != nil {
		if errors.Is(err, model.ErrJobExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DemoJobs returns the jobs Run adds.
func DemoJobs() []model.AddJobRequest {
	return []model.AddJobRequest{
		{
			Queue:   "emails",
			Name:    "welcome",
			Data:    mustJSON(map[string]any{"to": "ada@example.com", "template": "welcome"}),
			Options: &model.JobOptions{JobID: "seed-welcome-1", Attempts: 3},
		},
		{
			Queue: "emails",
			Name:  "receipt",
			Data:  mustJSON(map[string]any{"to": "grace@example.com", "order": 1042}),
			Options: &model.JobOptions{
				JobID:    "seed-receipt-1",
				Priority: 5,
				Attempts: 5,
				Backoff:  &model.BackoffOptions{Type: "exponential", Delay: 1000},
			},
		},
		{
			Queue:   "emails",
			Name:    "digest",
			Data:    mustJSON(map[string]any{"user": map[string]any{"id": 7}, "period": "weekly"}),
			Options: &model.JobOptions{JobID: "seed-digest-1", Delay: 3_600_000},
		},
		{
			Queue:   "reports",
			Name:    "monthly-revenue",
			Data:    mustJSON(map[string]any{"month": "2024-01", "currency": "EUR"}),
			Options: &model.JobOptions{JobID: "seed-report-1", Attempts: 2},
		},
		{
			Queue:   "reports",
			Name:    "export-csv",
			Data:    json.RawMessage(`"all-customers"`),
			Options: &model.JobOptions{JobID: "seed-export-1", LIFO: true},
		},
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
