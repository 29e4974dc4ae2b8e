package devseed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestRun_CreatesAndSkips(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockQueueBackend(ctrl)

	demo := DemoJobs()
	backend.EXPECT().AddJob(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.AddJobRequest) (*model.RawJobRecord, error) {
			if req.Options.JobID == demo[0].Options.JobID {
				return nil, fmt.Errorf("add job: %w", model.ErrJobExists)
			}
			id := req.Options.JobID
			return &model.RawJobRecord{ID: &id}, nil
		}).Times(len(demo))

	res, err := Run(context.Background(), backend, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: len(demo) - 1, Skipped: 1}, res)
}

func TestRun_CountsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockQueueBackend(ctrl)
	backend.EXPECT().AddJob(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).Times(len(DemoJobs()))

	res, err := Run(context.Background(), backend, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d seed errors", len(DemoJobs())))
	assert.Zero(t, res.Created)
}

func TestRun_RequiresBackend(t *testing.T) {
	_, err := Run(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestDemoJobs_HaveStableIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, job := range DemoJobs() {
		require.NotNil(t, job.Options)
		assert.NotEmpty(t, job.Options.JobID)
		assert.False(t, seen[job.Options.JobID], "duplicate id %s", job.Options.JobID)
		seen[job.Options.JobID] = true
	}
}
