// Package httpx provides the HTTP API and HTML views of the queue board.
package httpx

import (
	"net/http"

	"github.com/target/bullboard/internal/domain/jobview"
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/service"
)

// BoardHandlers serves the read side of the board.
type BoardHandlers struct {
	Board  *service.BoardService
	Limits PageLimits
}

// jobsResponse is the body of GET /api/jobs.
type jobsResponse struct {
	model.JobPage
	PageCount int               `json:"pageCount"`
	Filter    model.FilterState `json:"filter"`
	LastError string            `json:"lastError,omitempty"`
}

// Jobs handles GET /api/jobs.
func (h *BoardHandlers) Jobs(w http.ResponseWriter, r *http.Request) {
	f := ParseFilterState(r.URL.Query(), h.Limits)
	page, err := h.Board.Jobs(r.Context(), f)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobsResponse{
		JobPage:   page,
		PageCount: jobview.PageCount(page.Total, page.PageSize),
		Filter:    f,
		LastError: h.Board.LastError(),
	})
}

// Overview handles GET /api/overview.
func (h *BoardHandlers) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Board.Overview(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, overview)
}

// Queues handles GET /api/queues.
func (h *BoardHandlers) Queues(w http.ResponseWriter, r *http.Request) {
	queues, err := h.Board.Queues(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"queues": queues})
}

// Insights handles GET /api/insights.
func (h *BoardHandlers) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.Board.Insights(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, insights)
}

// Detail handles GET /api/queues/{queue}/jobs/{id}.
func (h *BoardHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	ref, err := jobRefFromPath(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	detail, err := h.Board.Detail(r.Context(), ref)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// Refresh handles POST /api/refresh and returns the new snapshot time.
func (h *BoardHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Board.Refresh(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"fetchedAt": snap.FetchedAt,
		"totalJobs": len(snap.Rows),
	})
}
