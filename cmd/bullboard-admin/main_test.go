package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
	"github.com/target/bullboard/internal/mocks"
	"github.com/target/bullboard/internal/service"
	"github.com/target/bullboard/internal/testutil"
	"go.uber.org/mock/gomock"
)

func record(id, queue, status string, ts int64) model.RawJobRecord {
	return model.RawJobRecord{
		ID:                 testutil.StringPtr(id),
		Name:               testutil.StringPtr("job-" + id),
		Timestamp:          testutil.Int64Ptr(ts),
		Status:             testutil.StringPtr(status),
		QueueQualifiedName: testutil.StringPtr("bull:" + queue),
	}
}

func sampleRecords() []model.RawJobRecord {
	return []model.RawJobRecord{
		record("1", "emails", model.StatusCompleted, 1000),
		record("2", "emails", model.StatusFailed, 2000),
		record("3", "reports", model.StatusActive, 3000),
	}
}

type cliFixture struct {
	backend *mocks.MockQueueBackend
	ctx     *commandContext
	opened  int
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &cliFixture{backend: mocks.NewMockQueueBackend(ctrl)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	board := service.MustNewBoardService(service.BoardServiceOptions{
		Backend: f.backend,
		Logger:  logger,
		Now:     testutil.FixedTimeFunc(testutil.TestTime()),
	})
	actions := service.MustNewActionService(service.ActionServiceOptions{
		Backend:  f.backend,
		Board:    board,
		Resolver: board.Resolver(),
		Logger:   logger,
	})
	f.ctx = &commandContext{
		logger:  logger,
		timeout: time.Minute,
		open: func(context.Context, *slog.Logger) (*appHandle, error) {
			f.opened++
			return &appHandle{
				Board:    board,
				Actions:  actions,
				Backend:  f.backend,
				Location: time.UTC,
				PageSize: 10,
			}, nil
		},
	}
	return f
}

func (f *cliFixture) expectSnapshot() {
	f.backend.EXPECT().ListQueues(gomock.Any()).Return([]model.QueueInfo{
		{Name: "emails"},
		{Name: "reports", IsPaused: true},
	}, nil)
	f.backend.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(sampleRecords(), nil)
}

func (f *cliFixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(f.ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJobsCommand_Table(t *testing.T) {
	f := newCLIFixture(t)
	f.expectSnapshot()

	out, err := f.run(t, "", "jobs", "--status", "failed,active")
	require.NoError(t, err)

	assert.Contains(t, out, "job-2")
	assert.Contains(t, out, "job-3")
	assert.NotContains(t, out, "job-1")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "1970-01-01 00:00:03")
	assert.Contains(t, out, "Page 1 of 1")
}

func TestJobsCommand_JSON(t *testing.T) {
	f := newCLIFixture(t)
	f.expectSnapshot()

	out, err := f.run(t, "", "jobs", "--queue", "emails", "--sort", "id:asc", "--json")
	require.NoError(t, err)

	var page model.JobPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "1", page.Rows[0].ID)
	assert.Equal(t, "2", page.Rows[1].ID)
	assert.Equal(t, 2, page.Total)
}

func TestJobsCommand_InvalidSortDirection(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "", "jobs", "--sort", "id:sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sort direction")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestJobsCommand_Empty(t *testing.T) {
	f := newCLIFixture(t)
	f.backend.EXPECT().ListQueues(gomock.Any()).Return(nil, nil)
	f.backend.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(nil, nil)

	out, err := f.run(t, "", "jobs")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs match.")
}

func TestQueuesAndInsightsCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.expectSnapshot()

	out, err := f.run(t, "", "queues")
	require.NoError(t, err)
	assert.Contains(t, out, "emails")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, "running")

	// The snapshot is still fresh, so no second fetch.
	out, err = f.run(t, "", "insights")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "33%")
	assert.Contains(t, out, "Total: 3")
}

func TestShowCommand(t *testing.T) {
	f := newCLIFixture(t)
	failed := record("2", "emails", model.StatusFailed, 2000)
	f.backend.EXPECT().GetJob(gomock.Any(), model.JobRef{Queue: "emails", ID: "2"}).Return(&failed, nil)

	out, err := f.run(t, "", "show", "emails", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "job-2")
	assert.Contains(t, out, "FAILED")

	_, err = f.run(t, "", "show", "emails")
	require.Error(t, err)
}

func TestRetryCommand(t *testing.T) {
	f := newCLIFixture(t)
	ref := model.JobRef{Queue: "emails", ID: "2"}
	failed := record("2", "emails", model.StatusFailed, 2000)
	f.backend.EXPECT().GetJob(gomock.Any(), ref).Return(&failed, nil)
	f.backend.EXPECT().RetryJob(gomock.Any(), ref).Return(nil)

	out, err := f.run(t, "", "retry", "emails", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Retried job 2 in emails")
}

func TestRetryCommand_NotFailed(t *testing.T) {
	f := newCLIFixture(t)
	done := record("1", "emails", model.StatusCompleted, 1000)
	f.backend.EXPECT().GetJob(gomock.Any(), gomock.Any()).Return(&done, nil)

	_, err := f.run(t, "", "retry", "emails", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only failed jobs can be retried")
	assert.Equal(t, exitConflict, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), exitFailure},
		{"canceled", context.Canceled, exitCanceled},
		{"mapped canceled", apperrors.MapBackendError(context.Canceled), exitCanceled},
		{"validation", apperrors.ValidationField("states", "at least one state is required"), exitUsage},
		{"not found", fmt.Errorf("get job: %w", apperrors.MapBackendError(model.ErrJobNotFound)), exitNotFound},
		{"conflict", apperrors.MapBackendError(model.ErrJobLocked), exitConflict},
		{"timeout", apperrors.MapBackendError(context.DeadlineExceeded), exitUnavailable},
		{"unavailable", &apperrors.AppError{Code: apperrors.ErrCodeUnavailable, Message: "down"}, exitUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestDeleteCommand_Confirmation(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "n\n", "delete", "emails", "1")
	require.ErrorIs(t, err, errAborted)
	assert.Zero(t, f.opened, "services are not opened when the user declines")

	f.backend.EXPECT().DeleteJob(gomock.Any(), model.JobRef{Queue: "emails", ID: "1"}).Return(nil)
	out, err := f.run(t, "yes\n", "delete", "emails", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted job 1 from emails")
}

func TestAddCommand(t *testing.T) {
	f := newCLIFixture(t)
	f.backend.EXPECT().AddJob(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.AddJobRequest) (*model.RawJobRecord, error) {
			assert.Equal(t, "emails", req.Queue)
			assert.Equal(t, "welcome", req.Name)
			assert.JSONEq(t, `{"to":"a@b.c"}`, string(req.Data))
			require.NotNil(t, req.Options)
			assert.Equal(t, 3, req.Options.Attempts)
			assert.Equal(t, "w-1", req.Options.JobID)
			rec := record("w-1", "emails", model.StatusWaiting, 5000)
			return &rec, nil
		})

	out, err := f.run(t, "", "add", "emails", "welcome",
		"--data", `{"to":"a@b.c"}`, "--attempts", "3", "--job-id", "w-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Added job w-1 to emails (WAITING)")
}

func TestAddOptions_Request(t *testing.T) {
	req := addOptions{}.request("q", "n")
	assert.Nil(t, req.Options)
	assert.Nil(t, req.Data)

	req = addOptions{data: "plain text", delay: 500}.request("q", "n")
	require.NotNil(t, req.Options)
	assert.Equal(t, int64(500), req.Options.Delay)
	assert.JSONEq(t, `"plain text"`, string(req.Data))
}

func TestQueueManagementCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.backend.EXPECT().SetQueuePaused(gomock.Any(), "emails", true).Return(nil)
	f.backend.EXPECT().SetQueuePaused(gomock.Any(), "emails", false).Return(nil)
	f.backend.EXPECT().CleanQueue(gomock.Any(), "emails", []string{"completed", "failed"}).Return(4, nil)

	out, err := f.run(t, "", "pause", "emails")
	require.NoError(t, err)
	assert.Contains(t, out, "Paused emails")

	out, err = f.run(t, "", "resume", "emails")
	require.NoError(t, err)
	assert.Contains(t, out, "Resumed emails")

	out, err = f.run(t, "", "clean", "emails", "--state", "completed,failed", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 4 jobs from emails")
}

func TestCleanCommand_Validation(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "", "clean", "emails", "--yes")
	require.Error(t, err)

	_, err = f.run(t, "", "clean", "emails", "--state", "active", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid state "active"`)
	assert.Zero(t, f.opened)
}

func TestLogsCommand(t *testing.T) {
	f := newCLIFixture(t)
	ref := model.JobRef{Queue: "emails", ID: "2"}
	f.backend.EXPECT().JobLogs(gomock.Any(), ref).Return([]string{"step 1", "step 2"}, nil)
	f.backend.EXPECT().JobLogs(gomock.Any(), ref).Return(nil, nil)

	out, err := f.run(t, "", "logs", "emails", "2")
	require.NoError(t, err)
	assert.Equal(t, "step 1\nstep 2\n", out)

	out, err = f.run(t, "", "logs", "emails", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "No logs.")
}

func TestSeedCommand(t *testing.T) {
	f := newCLIFixture(t)
	f.backend.EXPECT().AddJob(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).
		AnyTimes()

	out, err := f.run(t, "", "seed")
	require.Error(t, err)
	assert.Contains(t, out, "Seeded 0 jobs")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "3")
}
