// Package slack posts failed-job alerts to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/target/bullboard/internal/observability/notify"
)

// maxErrorLen keeps long failure reasons from flooding the channel.
const maxErrorLen = 500

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// BoardURL is the board's public base URL; when set, alerts link to the job.
	BoardURL string
}

// Client delivers job failure notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	boardURL   *url.URL
	client     *http.Client
	now        func() time.Time
}

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   notify.Fallback(strings.TrimSpace(cfg.Username), "bullboard"),
		retryLimit: max(cfg.RetryLimit, 0),
		boardURL:   parseBoardURL(cfg.BoardURL),
		client:     hc,
		now:        time.Now,
	}, nil
}

// SendJobFailure posts a formatted message to Slack.
func (c *Client) SendJobFailure(ctx context.Context, payload notify.JobFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.Post(ctx, notify.PostRequest{
		Client:     c.client,
		URL:        c.webhookURL,
		Body:       body,
		RetryLimit: c.retryLimit,
		Name:       "slack",
	})
}

func (c *Client) formatMessage(payload notify.JobFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = c.now()
	}

	var text strings.Builder
	c.writeHeader(&text, payload)
	for _, field := range []struct{ label, value string }{
		{"Severity", notify.Fallback(payload.Severity, notify.SeverityCritical)},
		{"Queue", escape(payload.Queue)},
		{"Attempts", attemptsValue(payload.AttemptsMade)},
		{"Error class", payload.ErrorClass},
		{"Error", escape(truncate(payload.Error, maxErrorLen))},
	} {
		writeField(&text, field.label, field.value)
	}
	writeMetadata(&text, payload.Metadata)
	text.WriteString("• Failed at: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) writeHeader(text *strings.Builder, payload notify.JobFailurePayload) {
	text.WriteString("*Job failed*")
	if id := c.jobLabel(payload.Queue, payload.JobID); id != "" {
		text.WriteByte(' ')
		text.WriteString(id)
	}
	if payload.JobName != "" {
		text.WriteString(" (")
		text.WriteString(escape(payload.JobName))
		text.WriteByte(')')
	}
	text.WriteByte('\n')
}

// jobLabel renders the job id, linked to the board's filtered job list when
// a board URL is configured.
func (c *Client) jobLabel(queue, jobID string) string {
	if jobID == "" {
		return ""
	}
	label := "`" + escape(jobID) + "`"
	link := c.jobLink(queue, jobID)
	if link == "" {
		return label
	}
	return fmt.Sprintf("<%s|%s>", link, escape(jobID))
}

func (c *Client) jobLink(queue, jobID string) string {
	if c.boardURL == nil {
		return ""
	}
	u := c.boardURL.JoinPath("jobs")
	q := url.Values{}
	q.Set("q", jobID)
	if queue != "" {
		q.Set("queue", queue)
	}
	q.Set("status", "failed")
	u.RawQuery = q.Encode()
	return u.String()
}

func parseBoardURL(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

func attemptsValue(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func escape(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func writeField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func writeMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(escape(metadata[k]))
		text.WriteByte('\n')
	}
}
