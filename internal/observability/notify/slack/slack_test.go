package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.JobFailurePayload{
		Queue:        "emails",
		JobID:        "123",
		JobName:      "send-welcome",
		Error:        "smtp timeout",
		ErrorClass:   "job_failed",
		AttemptsMade: 3,
		OccurredAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Metadata:     map[string]string{"prefix": "bull"},
	})

	assert.Equal(t, "bot", msg["username"])
	assert.Equal(t, "#alerts", msg["channel"])

	text, ok := msg["text"].(string)
	require.True(t, ok)
	for _, want := range []string{
		"*Job failed* `123` (send-welcome)",
		"• Severity: critical",
		"• Queue: emails",
		"• Attempts: 3",
		"• Error class: job_failed",
		"• Error: smtp timeout",
		"    • prefix: bull",
		"• Failed at: 2024-01-01T12:00:00Z",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatMessageJobLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		BoardURL:   "https://board.example/ops/",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.JobFailurePayload{Queue: "emails", JobID: "42"})
	text, _ := msg["text"].(string)
	assert.Contains(t, text, "<https://board.example/ops/jobs?q=42&queue=emails&status=failed|42>")
}

func TestFormatMessageIgnoresInvalidBoardURL(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test", BoardURL: "not a url"})
	require.NoError(t, err)

	msg := client.formatMessage(notify.JobFailurePayload{JobID: "42"})
	text, _ := msg["text"].(string)
	assert.Contains(t, text, "*Job failed* `42`")
	_, hasChannel := msg["channel"]
	assert.False(t, hasChannel)
}

func TestFormatMessageEscapesAndTruncates(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	require.NoError(t, err)

	msg := client.formatMessage(notify.JobFailurePayload{
		JobName: "a & <b>",
		Error:   strings.Repeat("x", maxErrorLen+20),
	})
	text, _ := msg["text"].(string)
	assert.Contains(t, text, "(a &amp; &lt;b&gt;)")
	assert.Contains(t, text, strings.Repeat("x", maxErrorLen)+"…")
	assert.NotContains(t, text, strings.Repeat("x", maxErrorLen+1))
}

func TestSendJobFailurePostsToWebhook(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Client: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, client.SendJobFailure(context.Background(), notify.JobFailurePayload{Queue: "emails", JobID: "1"}))
	assert.Equal(t, "bullboard", got["username"])
	assert.Contains(t, got["text"], "Queue: emails")
}
