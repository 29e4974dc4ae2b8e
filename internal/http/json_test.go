package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantField  string
	}{
		{
			name:       "not found",
			err:        apperrors.MapBackendError(model.ErrJobNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
			wantMsg:    "Job not found",
		},
		{
			name:       "validation keeps field",
			err:        apperrors.ValidationField("sort", "unknown sort column"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
			wantMsg:    "unknown sort column",
			wantField:  "sort",
		},
		{
			name:       "wrapped conflict",
			err:        fmt.Errorf("retry: %w", apperrors.MapBackendError(model.ErrJobLocked)),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
			wantMsg:    "Job is being processed and cannot be changed.",
		},
		{
			name:       "unavailable",
			err:        &apperrors.AppError{Code: apperrors.ErrCodeUnavailable, Message: "Queue backend is unavailable. Please try again."},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "unavailable",
			wantMsg:    "Queue backend is unavailable. Please try again.",
		},
		{
			name:       "timeout",
			err:        apperrors.MapBackendError(context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timeout",
			wantMsg:    "Request timed out. Please try again.",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
			wantMsg:    "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst cleanBody

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"states":["failed"]}`))
	rec := httptest.NewRecorder()
	require.True(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, []string{"failed"}, dst.States)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	rec = httptest.NewRecorder()
	require.False(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"invalid_json"`)
}
