package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/bullboard/internal/mocks"
	"github.com/target/bullboard/internal/service"
	"github.com/target/bullboard/internal/testutil"
	"go.uber.org/mock/gomock"
)

func newUIFixture(t *testing.T, tmpl string) (*mocks.MockQueueBackend, *UIHandlers) {
	t.Helper()
	backend := mocks.NewMockQueueBackend(gomock.NewController(t))
	board := service.MustNewBoardService(service.BoardServiceOptions{
		Backend: backend,
		Config:  service.BoardConfig{SnapshotTTL: time.Minute},
		Logger:  discardLogger(),
		Now:     testutil.FixedTimeFunc(testutil.TestTime()),
	})
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: fstest.MapFS{"jobs.tmpl": {Data: []byte(tmpl)}},
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return backend, &UIHandlers{Board: board, Renderer: renderer, Limits: PageLimits{Default: 2, Max: 5}}
}

func TestUIHandlers_JobsList_Renders(t *testing.T) {
	backend, h := newUIFixture(t, `{{define "jobs"}}total={{.Page.Total}}{{end}}`)
	backend.EXPECT().ListQueues(gomock.Any()).Return(nil, nil)
	backend.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(sampleSnapshot(), nil)

	rec := httptest.NewRecorder()
	h.JobsList(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "total=3", rec.Body.String())
}

func TestUIHandlers_JobsList_TemplateFailure(t *testing.T) {
	backend, h := newUIFixture(t, `{{define "jobs"}}{{.NoSuchField}}{{end}}`)
	backend.EXPECT().ListQueues(gomock.Any()).Return(nil, nil)
	backend.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(sampleSnapshot(), nil)

	rec := httptest.NewRecorder()
	h.JobsList(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), http.StatusText(http.StatusInternalServerError))
	assert.NotContains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestUIHandlers_JobsList_ErrorPageTemplateFailure(t *testing.T) {
	backend, h := newUIFixture(t, `{{define "jobs"}}{{.NoSuchField}}{{end}}`)
	backend.EXPECT().ListQueues(gomock.Any()).Return(nil, errors.New("redis down"))
	backend.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	rec := httptest.NewRecorder()
	h.JobsList(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), http.StatusText(http.StatusInternalServerError))
}

func TestRenderStatus_ExecutionErrorIsMarked(t *testing.T) {
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: fstest.MapFS{"x.tmpl": {Data: []byte(`{{define "x"}}{{.Missing}}{{end}}`)}},
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = renderer.RenderStatus(rec, http.StatusOK, "x", struct{}{})
	require.ErrorIs(t, err, ErrTemplateExecution)
	assert.Zero(t, rec.Body.Len(), "nothing is written when execution fails")
}
