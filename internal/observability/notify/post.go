package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRetryDelay is the step of the linear backoff between attempts.
const DefaultRetryDelay = 200 * time.Millisecond

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// PostRequest describes one JSON delivery to a webhook style endpoint.
type PostRequest struct {
	Client     *http.Client // Required
	URL        string       // Required
	Body       []byte
	RetryLimit int
	// RetryDelay overrides DefaultRetryDelay; attempt n waits n*RetryDelay.
	RetryDelay time.Duration
	// Name labels errors, e.g. "slack".
	Name string
}

// Post sends req.Body as JSON, retrying failed attempts with a linear backoff.
// It returns the last attempt's error, or ctx.Err() when canceled while waiting.
func Post(ctx context.Context, req PostRequest) error {
	if req.Client == nil {
		return errors.New("http client is required")
	}
	delay := req.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	attempts := max(req.RetryLimit, 0) + 1

	var lastErr error
	for attempt := range attempts {
		lastErr = postOnce(ctx, req)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func postOnce(ctx context.Context, req PostRequest) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", req.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := req.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", req.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResponse(req.Name, resp)
	}
	return drain(req.Name, resp)
}

func drain(name string, resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		if closeErr := resp.Body.Close(); closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain %s response body: %w", name, err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain %s response body: %w", name, err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

func errorResponse(name string, resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return errors.Join(
			fmt.Errorf("read %s error response: %w", name, readErr),
			closeErr,
		)
	}
	if closeErr != nil {
		return fmt.Errorf("close response body: %w", closeErr)
	}
	return fmt.Errorf("%s %s: %s", name, resp.Status, strings.TrimSpace(string(respBody)))
}

// Fallback returns value, or fallback when value is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
