package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Post(context.Background(), PostRequest{
		Client:     srv.Client(),
		URL:        srv.URL,
		Body:       []byte(`{"ok":true}`),
		RetryLimit: 2,
		RetryDelay: time.Millisecond,
		Name:       "test",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_ReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := Post(context.Background(), PostRequest{
		Client:     srv.Client(),
		URL:        srv.URL,
		RetryLimit: 1,
		RetryDelay: time.Millisecond,
		Name:       "slack",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack 403 Forbidden: invalid_token")
}

func TestPost_StopsWhenCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Post(ctx, PostRequest{Client: srv.Client(), URL: srv.URL, RetryLimit: 5, Name: "test"})
	require.Error(t, err)
}

func TestPost_RequiresClient(t *testing.T) {
	require.Error(t, Post(context.Background(), PostRequest{URL: "http://example.invalid"}))
}

func TestJobFailurePayload_DedupKey(t *testing.T) {
	p := JobFailurePayload{Queue: "emails", JobID: "7"}
	assert.Equal(t, "emails:7", p.DedupKey())

	p.OccurredAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "emails:7:2024-01-01T12:00:00Z", p.DedupKey())
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "x", Fallback("  ", "x"))
	assert.Equal(t, "y", Fallback("y", "x"))
}
