package httpx

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	h := Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"bytes":2`)
}

func TestRecover(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAcceptsGzip(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"gzip":                true,
		"deflate, gzip":       true,
		"GZIP;q=0.5":          true,
		"gzip;q=0":            false,
		"gzip; q=0.0, br":     false,
		"br, deflate":         false,
		"x-gzip-custom, gzip": true,
	}
	for header, want := range tests {
		assert.Equal(t, want, acceptsGzip(header), header)
	}
}

func TestCompression(t *testing.T) {
	content := strings.Repeat("Hello, World! ", 1000)

	serve := func(contentType, acceptEncoding, method string) *httptest.ResponseRecorder {
		h := Compression(CompressionConfig{Level: 6, Logger: discardLogger()})(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(content))
			}))
		req := httptest.NewRequest(method, "/", nil)
		if acceptEncoding != "" {
			req.Header.Set("Accept-Encoding", acceptEncoding)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("compresses json when accepted", func(t *testing.T) {
		rec := serve("application/json; charset=utf-8", "gzip, deflate", http.MethodGet)
		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
	})

	t.Run("skips without accept-encoding", func(t *testing.T) {
		rec := serve("text/html", "", http.MethodGet)
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, content, rec.Body.String())
	})

	t.Run("skips incompressible types", func(t *testing.T) {
		rec := serve("image/png", "gzip", http.MethodGet)
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, content, rec.Body.String())
	})

	t.Run("skips HEAD", func(t *testing.T) {
		rec := serve("text/html", "gzip", http.MethodHead)
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})
}

func TestCompression_NoContent(t *testing.T) {
	h := Compression(CompressionConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}
