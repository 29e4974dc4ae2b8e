package jobview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
)

func TestStatuses(t *testing.T) {
	rows := []model.ResolvedJobRow{
		row("1", "q", model.StatusFailed),
		row("2", "q", "stuck"),
		row("3", "q", model.StatusPrioritized),
		row("4", "q", "stuck"),
	}

	got := Statuses(rows)
	assert.Equal(t, append(model.DefaultStatuses(), "stuck", model.StatusPrioritized), got)
	assert.Equal(t, model.DefaultStatuses(), Statuses(nil))
}

func TestQueueNames(t *testing.T) {
	rows := []model.ResolvedJobRow{
		row("1", "b", model.StatusWaiting),
		row("2", "a", model.StatusWaiting),
		row("3", "b", model.StatusWaiting),
	}

	assert.Equal(t, []string{"b", "a"}, QueueNames(nil, rows))
	assert.Equal(t, []string{"x", "y"}, QueueNames([]model.QueueInfo{{Name: "x"}, {Name: "y"}}, rows),
		"external list takes precedence")
	assert.Equal(t, []string{}, QueueNames(nil, nil))
}

func TestQueueStatusCounts(t *testing.T) {
	got := QueueStatusCounts(mixedRows())

	assert.Equal(t, []model.QueueStatusCount{
		{Queue: "A", Status: model.StatusFailed, Count: 2},
		{Queue: "B", Status: model.StatusFailed, Count: 1},
		{Queue: "A", Status: model.StatusCompleted, Count: 1},
		{Queue: "B", Status: model.StatusActive, Count: 1},
	}, got)
}

func TestSummaries(t *testing.T) {
	external := []model.QueueInfo{{Name: "A", IsPaused: true}, {Name: "C"}}

	got := Summaries(external, mixedRows())
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].Name)
	assert.True(t, got[0].IsPaused)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, map[string]int{model.StatusFailed: 2, model.StatusCompleted: 1}, got[0].Counts)

	assert.Equal(t, "C", got[1].Name)
	assert.Equal(t, 0, got[1].Total)
	assert.Empty(t, got[1].Counts)
}

func TestSummaries_DerivedQueues(t *testing.T) {
	got := Summaries(nil, mixedRows())
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
	assert.Equal(t, 2, got[1].Total)
}

func TestInsights(t *testing.T) {
	ins := Insights(mixedRows())

	assert.Equal(t, 5, ins.TotalJobs)
	assert.False(t, ins.Empty)
	require.Len(t, ins.Statuses, 3)

	active := ins.Statuses[0]
	assert.Equal(t, model.StatusActive, active.Status)
	assert.Equal(t, "ACTIVE", active.Label)
	assert.Equal(t, "1 job", active.CountText)
	assert.Equal(t, 20, active.Percentage)
	assert.Equal(t, "processing", active.Color)

	assert.Equal(t, model.StatusCompleted, ins.Statuses[1].Status)

	failed := ins.Statuses[2]
	assert.Equal(t, "3 jobs", failed.CountText)
	assert.Equal(t, 60, failed.Percentage)
	assert.Equal(t, "error", failed.Color)
}

func TestInsights_Empty(t *testing.T) {
	ins := Insights(nil)
	assert.True(t, ins.Empty)
	assert.Equal(t, 0, ins.TotalJobs)
	assert.Empty(t, ins.Statuses)
}

func TestValidateDataQuery(t *testing.T) {
	assert.NoError(t, ValidateDataQuery(""))
	assert.NoError(t, ValidateDataQuery("  "))
	assert.NoError(t, ValidateDataQuery("user.id"))
	assert.Error(t, ValidateDataQuery("user.[id"))
}

func TestFilterByDataQuery(t *testing.T) {
	rows := []model.ResolvedJobRow{
		{ID: "obj", Data: json.RawMessage(`{"tags":["a"],"flag":true}`)},
		{ID: "emptyTags", Data: json.RawMessage(`{"tags":[],"flag":false}`)},
		{ID: "text", Data: json.RawMessage(`"hello"`)},
		{ID: "none"},
		{ID: "broken", Data: json.RawMessage(`{not json`)},
	}

	assert.Equal(t, []string{"obj"}, ids(FilterByDataQuery(rows, "tags")))
	assert.Equal(t, []string{"obj"}, ids(FilterByDataQuery(rows, "flag")))
	assert.Equal(t, []string{"text"}, ids(FilterByDataQuery(rows, "@ == 'hello'")))
	assert.Len(t, FilterByDataQuery(rows, ""), 5)
	assert.Empty(t, FilterByDataQuery(rows, "tags[?"), "invalid expressions match nothing")
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy([]any{}))
	assert.False(t, truthy(map[string]any{}))
	assert.True(t, truthy(0.0))
	assert.True(t, truthy("x"))
	assert.True(t, truthy([]any{nil}))
}
