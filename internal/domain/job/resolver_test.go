package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
)

func fixedResolver() Resolver {
	return Resolver{Now: func() time.Time { return fixedNow }}
}

func TestResolver_Resolve_CopiesFields(t *testing.T) {
	rec := &model.RawJobRecord{
		ID:                 ptr("42"),
		Name:               ptr("send-mail"),
		Timestamp:          ptr(int64(1700000000000)),
		ProcessedOn:        ptr(int64(1700000001000)),
		FinishedOn:         ptr(int64(1700000002000)),
		FailedReason:       ptr("smtp down"),
		Stacktrace:         []string{"Error: smtp down", "at send"},
		QueueQualifiedName: ptr("bull:emails"),
		Data:               json.RawMessage(`{"to":"a@example.com"}`),
		Opts:               json.RawMessage(`{"attempts":3}`),
		AttemptsMade:       ptr(2),
		Progress:           json.RawMessage(`50`),
		ReturnValue:        json.RawMessage(`{"ok":false}`),
	}

	row := fixedResolver().Resolve(rec)

	assert.Equal(t, "42", row.ID)
	assert.Equal(t, "42", row.Key())
	assert.Equal(t, "send-mail", row.Name)
	assert.Equal(t, int64(1700000000000), row.Timestamp)
	assert.Equal(t, rec.ProcessedOn, row.ProcessedOn)
	assert.Equal(t, rec.FinishedOn, row.FinishedOn)
	assert.Equal(t, model.StatusFailed, row.CurrentStatus)
	assert.True(t, row.CanRetry())
	assert.Equal(t, "emails", row.QueueName)
	assert.Equal(t, "smtp down", row.FailedReason)
	assert.Equal(t, rec.Stacktrace, row.Stacktrace)
	assert.Equal(t, 2, row.AttemptsMade)
	assert.JSONEq(t, `{"to":"a@example.com"}`, string(row.Data))
	assert.JSONEq(t, `{"attempts":3}`, string(row.Opts))
	assert.JSONEq(t, `50`, string(row.Progress))
	assert.JSONEq(t, `{"ok":false}`, string(row.ReturnValue))
	assert.Same(t, rec, row.Original)
}

func TestResolver_Resolve_Defaults(t *testing.T) {
	row := fixedResolver().Resolve(&model.RawJobRecord{})

	assert.Equal(t, "", row.ID)
	assert.Equal(t, "", row.Name)
	assert.Equal(t, fixedNow.UnixMilli(), row.Timestamp, "missing timestamp falls back to resolution time")
	assert.Equal(t, 0, row.AttemptsMade)
	assert.Equal(t, model.StatusWaiting, row.CurrentStatus)
	assert.Equal(t, model.UnknownQueue, row.QueueName)
	assert.False(t, row.CanRetry())
}

func TestResolver_Resolve_DoesNotMutateRecord(t *testing.T) {
	rec := &model.RawJobRecord{ID: ptr("1"), QueueQualifiedName: ptr("bull:emails")}
	before := *rec

	_ = fixedResolver().Resolve(rec)

	assert.Equal(t, before, *rec)
}

func TestResolver_ReturnValueAlias(t *testing.T) {
	var rec model.RawJobRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"9","returnValue":{"sent":true}}`), &rec))

	row := fixedResolver().Resolve(&rec)
	assert.JSONEq(t, `{"sent":true}`, string(row.ReturnValue))
}

func TestResolver_ResolveAll_EndToEnd(t *testing.T) {
	ts := fixedNow.UnixMilli()
	recs := []model.RawJobRecord{
		{ID: ptr("1"), QueueQualifiedName: ptr("bull:emails"), FinishedOn: ptr(ts)},
		{ID: ptr("2"), QueueQualifiedName: ptr("bull:emails"), ProcessedOn: ptr(ts)},
		{ID: ptr("3"), QueueQualifiedName: ptr("direct-queue")},
	}

	rows := fixedResolver().ResolveAll(recs)
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, "emails", rows[0].QueueName)
	assert.Equal(t, model.StatusCompleted, rows[0].CurrentStatus)

	assert.Equal(t, "2", rows[1].ID)
	assert.Equal(t, "emails", rows[1].QueueName)
	assert.Equal(t, model.StatusActive, rows[1].CurrentStatus)

	assert.Equal(t, "3", rows[2].ID)
	assert.Equal(t, "direct-queue", rows[2].QueueName)
	assert.Equal(t, model.StatusWaiting, rows[2].CurrentStatus)
}

func TestResolver_InvalidFallbackUsesWaiting(t *testing.T) {
	r := Resolver{Now: func() time.Time { return fixedNow }, Fallback: "bogus"}
	assert.Equal(t, model.StatusWaiting, r.Status(&model.RawJobRecord{}))
}
