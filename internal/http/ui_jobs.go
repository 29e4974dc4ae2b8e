package httpx

import (
	"errors"
	"net/http"

	"github.com/target/bullboard/internal/domain/jobview"
	"github.com/target/bullboard/internal/domain/model"
	apperrors "github.com/target/bullboard/internal/errors"
	"github.com/target/bullboard/internal/service"
)

// UIHandlers renders the HTML job list.
type UIHandlers struct {
	Board    *service.BoardService
	Renderer *TemplateRenderer
	Limits   PageLimits
}

// pageLink is one entry of the pagination bar.
type pageLink struct {
	Number  int
	URL     string
	Current bool
}

// jobsPageData is the template data of the job list.
type jobsPageData struct {
	Title      string
	Filter     model.FilterState
	Overview   model.BoardOverview
	Page       model.JobPage
	PageCount  int
	Links      []pageLink
	PrevURL    string
	NextURL    string
	Error      string
	FieldError string
}

// maxPageLinks bounds the numbered links around the current page.
const maxPageLinks = 9

// JobsList handles GET /jobs.
func (h *UIHandlers) JobsList(w http.ResponseWriter, r *http.Request) {
	f := ParseFilterState(r.URL.Query(), h.Limits)
	data := jobsPageData{Title: "Jobs", Filter: f}

	overview, err := h.Board.Overview(r.Context())
	if err != nil {
		h.renderJobsError(w, data, err)
		return
	}
	data.Overview = overview
	if overview.LastError != "" {
		data.Error = overview.LastError
	}

	page, err := h.Board.Jobs(r.Context(), f)
	if err != nil {
		h.renderJobsError(w, data, err)
		return
	}
	data.Page = page
	data.PageCount = jobview.PageCount(page.Total, page.PageSize)
	data.Links, data.PrevURL, data.NextURL = buildPagination(r.URL.Path, f, data.PageCount)

	h.render(w, http.StatusOK, data)
}

func (h *UIHandlers) renderJobsError(w http.ResponseWriter, data jobsPageData, err error) {
	data.Error = err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		data.Error = appErr.Message
		data.FieldError = appErr.Field
	}
	h.render(w, StatusForError(err), data)
}

// render writes the jobs template, falling back to a plain 500 when the
// template fails before the response has started.
func (h *UIHandlers) render(w http.ResponseWriter, status int, data jobsPageData) {
	err := h.Renderer.RenderStatus(w, status, "jobs", data)
	if errors.Is(err, ErrTemplateExecution) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// buildPagination returns a window of page links centred on the current page.
func buildPagination(path string, f model.FilterState, pageCount int) ([]pageLink, string, string) {
	if pageCount < 1 {
		return nil, "", ""
	}
	current := min(max(f.CurrentPage, 1), pageCount)
	start := max(current-maxPageLinks/2, 1)
	end := min(start+maxPageLinks-1, pageCount)
	start = max(end-maxPageLinks+1, 1)

	pageURL := func(n int) string { return path + "?" + FilterQuery(f, n).Encode() }
	links := make([]pageLink, 0, end-start+1)
	for n := start; n <= end; n++ {
		links = append(links, pageLink{Number: n, URL: pageURL(n), Current: n == f.CurrentPage})
	}

	var prev, next string
	if f.CurrentPage > 1 {
		prev = pageURL(min(f.CurrentPage-1, pageCount))
	}
	if f.CurrentPage < pageCount {
		next = pageURL(f.CurrentPage + 1)
	}
	return links, prev, next
}
