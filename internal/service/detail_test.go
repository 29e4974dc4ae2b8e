package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/target/bullboard/internal/domain/model"
)

func int64Ptr(v int64) *int64 { return &v }

func TestBuildDetail(t *testing.T) {
	row := model.ResolvedJobRow{
		ID:            "7",
		Name:          "send-email",
		Timestamp:     0,
		ProcessedOn:   int64Ptr(1_700_000_000_000),
		FinishedOn:    int64Ptr(1_700_000_001_500),
		CurrentStatus: model.StatusFailed,
		QueueName:     "emails",
		Data:          json.RawMessage(`{"to":"a@example.com"}`),
		FailedReason:  "smtp down",
		Stacktrace:    []string{"Error: smtp down", "", "at send"},
		Progress:      json.RawMessage(`{"step":2}`),
	}

	d := BuildDetail(row, nil)
	assert.Equal(t, "FAILED", d.StatusLabel)
	assert.Equal(t, "error", d.StatusColor)
	assert.True(t, d.CanRetry)
	assert.Equal(t, "1970-01-01 00:00:00", d.CreatedAt, "zero is a valid epoch")
	assert.Equal(t, "2023-11-14 22:13:20", d.ProcessedAt)
	assert.Equal(t, "2023-11-14 22:13:21", d.FinishedAt)
	assert.Equal(t, "1.5s", d.Duration)
	assert.Equal(t, "{\n  \"to\": \"a@example.com\"\n}", d.DataJSON)
	assert.Empty(t, d.OptsJSON)
	assert.Empty(t, d.ReturnJSON)
	assert.Equal(t, "{\n  \"step\": 2\n}", d.ProgressText)
	assert.Equal(t, "smtp down\nError: smtp down\nat send", d.ErrorTrace)
}

func TestBuildDetail_MissingTimes(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := BuildDetail(model.ResolvedJobRow{ID: "1", Timestamp: 1_700_000_000_000, CurrentStatus: model.StatusWaiting}, loc)
	assert.Equal(t, "2023-11-15 00:13:20", d.CreatedAt)
	assert.Equal(t, "N/A", d.ProcessedAt)
	assert.Equal(t, "N/A", d.FinishedAt)
	assert.Empty(t, d.Duration)
	assert.False(t, d.CanRetry)
	assert.Empty(t, d.ErrorTrace)
}

func TestProgressText(t *testing.T) {
	assert.Empty(t, progressText(nil))
	assert.Empty(t, progressText(json.RawMessage(`null`)))
	assert.Equal(t, "42", progressText(json.RawMessage(`42`)))
	assert.Equal(t, "halfway", progressText(json.RawMessage(`"halfway"`)))
	assert.Equal(t, "true", progressText(json.RawMessage(`true`)))
	assert.Equal(t, "[\n  1,\n  2\n]", progressText(json.RawMessage(`[1,2]`)))
}
