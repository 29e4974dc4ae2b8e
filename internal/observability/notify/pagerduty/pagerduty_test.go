package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{RoutingKey: "  "})
	require.Error(t, err)
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	event := client.buildEvent(notify.JobFailurePayload{
		Queue:      "emails",
		JobID:      "123",
		JobName:    "send",
		Error:      "boom",
		ErrorClass: "job_failed",
		Severity:   "LOUD",
		Metadata:   map[string]string{"prefix": "bull", "queue": "ignored"},
	})

	assert.Equal(t, "key", event["routing_key"])
	assert.Equal(t, "trigger", event["event_action"])
	assert.Equal(t, "emails:123", event["dedup_key"])

	section, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityCritical, section["severity"])
	assert.Equal(t, "bullboard", section["source"])
	assert.Equal(t, "bullboard", section["component"])
	assert.Equal(t, "emails", section["group"])
	assert.Equal(t, "Job 123 in queue emails failed", section["summary"])
	assert.Equal(t, "2024-01-01T12:00:00Z", section["timestamp"])

	custom, ok := section["custom_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "emails", custom["queue"], "metadata never overrides built-in details")
	assert.Equal(t, "bull", custom["prefix"])
	assert.Equal(t, "boom", custom["error"])
}

func TestBuildEventKeepsKnownSeverity(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	require.NoError(t, err)

	section := client.buildEvent(notify.JobFailurePayload{Severity: " Warning "})["payload"].(map[string]any)
	assert.Equal(t, notify.SeverityWarning, section["severity"])
	assert.Equal(t, "Job unknown in queue unknown failed", section["summary"])
}

func TestSendJobFailureUsesEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL, Client: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, client.SendJobFailure(context.Background(), notify.JobFailurePayload{Queue: "reports", JobID: "9"}))
	assert.Equal(t, "reports:9", got["dedup_key"])
}
