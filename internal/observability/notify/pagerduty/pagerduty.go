// Package pagerduty raises PagerDuty incidents for failed jobs.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/bullboard/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

var validSeverities = map[string]bool{
	notify.SeverityCritical: true,
	notify.SeverityError:    true,
	notify.SeverityWarning:  true,
	"info":                  true,
}

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Endpoint overrides APIEndpoint.
	Endpoint string
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	retryLimit int
	client     *http.Client
	now        func() time.Time
}

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
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
		routingKey: key,
		source:     notify.Fallback(strings.TrimSpace(cfg.Source), "bullboard"),
		component:  notify.Fallback(strings.TrimSpace(cfg.Component), "bullboard"),
		endpoint:   notify.Fallback(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
		now:        time.Now,
	}, nil
}

// SendJobFailure submits a trigger event to PagerDuty.
func (c *Client) SendJobFailure(ctx context.Context, payload notify.JobFailurePayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return notify.Post(ctx, notify.PostRequest{
		Client:     c.client,
		URL:        c.endpoint,
		Body:       body,
		RetryLimit: c.retryLimit,
		Name:       "pagerduty",
	})
}

func (c *Client) buildEvent(payload notify.JobFailurePayload) map[string]any {
	severity := strings.ToLower(strings.TrimSpace(payload.Severity))
	if !validSeverities[severity] {
		severity = notify.SeverityCritical
	}

	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = c.now()
	}

	custom := map[string]any{
		"queue":         payload.Queue,
		"job_id":        payload.JobID,
		"job_name":      payload.JobName,
		"attempts_made": payload.AttemptsMade,
		"error":         payload.Error,
		"error_class":   payload.ErrorClass,
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    payload.DedupKey(),
		"payload": map[string]any{
			"summary": fmt.Sprintf(
				"Job %s in queue %s failed",
				notify.Fallback(payload.JobID, "unknown"),
				notify.Fallback(payload.Queue, "unknown"),
			),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"group":          payload.Queue,
			"class":          payload.ErrorClass,
			"timestamp":      occurredAt.UTC().Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}
