package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortDirection(t *testing.T) {
	tests := []struct {
		in     string
		want   SortDirection
		wantOK bool
	}{
		{"asc", SortAscend, true},
		{"ascend", SortAscend, true},
		{" DESC ", SortDescend, true},
		{"descend", SortDescend, true},
		{"sideways", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSortDirection(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestDefaultFilterState(t *testing.T) {
	f := DefaultFilterState(0)

	assert.Equal(t, []string{FilterAll}, f.StatusFilters)
	assert.Equal(t, FilterAll, f.QueueFilter)
	assert.Equal(t, ColumnTimestamp, f.SortColumn)
	assert.Equal(t, SortDescend, f.SortDirection)
	assert.Equal(t, 1, f.CurrentPage)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.False(t, f.FiltersQueue())
	assert.False(t, f.FiltersStatus())
	assert.True(t, f.Sorted())

	assert.Equal(t, 25, DefaultFilterState(25).PageSize)
}

func TestFilterState_FiltersStatus(t *testing.T) {
	assert.False(t, FilterState{}.FiltersStatus())
	assert.False(t, FilterState{StatusFilters: []string{"failed", FilterAll}}.FiltersStatus())
	assert.True(t, FilterState{StatusFilters: []string{"failed"}}.FiltersStatus())
}

func TestFilterState_Key(t *testing.T) {
	a := FilterState{StatusFilters: []string{"failed", "active"}, QueueFilter: "emails", CurrentPage: 1, PageSize: 10}
	b := FilterState{StatusFilters: []string{"active", "failed"}, QueueFilter: "emails", CurrentPage: 1, PageSize: 10}
	c := b
	c.CurrentPage = 2

	assert.Equal(t, a.Key(), b.Key(), "status order does not matter")
	assert.NotEqual(t, b.Key(), c.Key())
	assert.Equal(t, []string{"failed", "active"}, a.StatusFilters, "Key must not reorder the caller slice")
}

func TestIsSortableColumn(t *testing.T) {
	assert.True(t, IsSortableColumn(ColumnTimestamp))
	assert.True(t, IsSortableColumn(ColumnStatus))
	assert.False(t, IsSortableColumn("data"))
}

func TestParseJobData(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(ParseJobData(` {"a":1} `)))
	assert.JSONEq(t, `[1,2]`, string(ParseJobData(`[1,2]`)))
	assert.JSONEq(t, `"hello world"`, string(ParseJobData("hello world")))
	assert.JSONEq(t, `"{broken"`, string(ParseJobData("{broken")))
	assert.JSONEq(t, `""`, string(ParseJobData("")))
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", PrettyJSON(json.RawMessage(`{"a":1}`)))
	assert.Equal(t, "", PrettyJSON(nil))
	assert.Equal(t, "not json", PrettyJSON(json.RawMessage("not json")))
}

func TestBackoffOptions_UnmarshalJSON(t *testing.T) {
	var fixed BackoffOptions
	require.NoError(t, json.Unmarshal([]byte(`3000`), &fixed))
	assert.Equal(t, BackoffOptions{Type: "fixed", Delay: 3000}, fixed)

	var expo BackoffOptions
	require.NoError(t, json.Unmarshal([]byte(`{"type":"exponential","delay":500}`), &expo))
	assert.Equal(t, BackoffOptions{Type: "exponential", Delay: 500}, expo)

	var bad BackoffOptions
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &bad))
}

func TestAddJobRequest_Decode(t *testing.T) {
	var req AddJobRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"queue":"emails",
		"name":"welcome",
		"data":{"to":"x"},
		"options":{"attempts":3,"backoff":1000,"removeOnComplete":true}
	}`), &req))

	assert.Equal(t, "emails", req.Queue)
	require.NotNil(t, req.Options)
	assert.Equal(t, 3, req.Options.Attempts)
	require.NotNil(t, req.Options.Backoff)
	assert.Equal(t, int64(1000), req.Options.Backoff.Delay)
	assert.JSONEq(t, `true`, string(req.Options.RemoveOnComplete))
}
