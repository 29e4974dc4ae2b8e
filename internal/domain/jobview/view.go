// Package jobview builds the job table from resolved rows: queue filter, text
// search, status filter, data query, stable sort and pagination, plus the
// facets (statuses, queue names, counts, insights) shown next to the table.
//
// Every function here is pure. Inputs are never mutated and empty input
// yields empty output at every stage.
package jobview

import (
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// Build runs the full pipeline for one filter state and returns the requested page
// together with the filtered total.
func Build(rows []model.ResolvedJobRow, f model.FilterState) model.JobPage {
	filtered := Filter(rows, f)
	if f.Sorted() {
		filtered = Sort(filtered, f.SortColumn, f.SortDirection)
	}
	return model.JobPage{
		Rows:     Paginate(filtered, f.CurrentPage, f.PageSize),
		Total:    len(filtered),
		Page:     f.CurrentPage,
		PageSize: f.PageSize,
	}
}

// Filter applies the queue, search, status and data-query stages in that order.
func Filter(rows []model.ResolvedJobRow, f model.FilterState) []model.ResolvedJobRow {
	out := FilterByQueue(rows, f.QueueFilter)
	out = Search(out, f.SearchText)
	out = FilterByStatus(out, f.StatusFilters)
	return FilterByDataQuery(out, f.DataQuery)
}

// FilterByQueue keeps rows whose queue name equals queue exactly.
// An empty queue or the ALL sentinel keeps everything.
func FilterByQueue(rows []model.ResolvedJobRow, queue string) []model.ResolvedJobRow {
	if queue == "" || queue == model.FilterAll {
		return rows
	}
	return keep(rows, func(r *model.ResolvedJobRow) bool {
		return r.QueueName == queue
	})
}

// Search keeps rows whose id or name contains text, ignoring case.
func Search(rows []model.ResolvedJobRow, text string) []model.ResolvedJobRow {
	if text == "" {
		return rows
	}
	needle := strings.ToLower(text)
	return keep(rows, func(r *model.ResolvedJobRow) bool {
		if r.ID != "" && strings.Contains(strings.ToLower(r.ID), needle) {
			return true
		}
		return r.Name != "" && strings.Contains(strings.ToLower(r.Name), needle)
	})
}

// FilterByStatus keeps rows whose status is one of statuses (exact match).
// No statuses, or a set containing ALL, keeps everything.
func FilterByStatus(rows []model.ResolvedJobRow, statuses []string) []model.ResolvedJobRow {
	if !(model.FilterState{StatusFilters: statuses}).FiltersStatus() {
		return rows
	}
	wanted := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}
	return keep(rows, func(r *model.ResolvedJobRow) bool {
		_, ok := wanted[r.CurrentStatus]
		return ok
	})
}

// Paginate returns the 1-indexed page of size pageSize. Out-of-range pages
// are empty; the caller decides whether to clamp.
func Paginate(rows []model.ResolvedJobRow, page, pageSize int) []model.ResolvedJobRow {
	if page < 1 || pageSize < 1 {
		return []model.ResolvedJobRow{}
	}
	// compare in pages first so huge page numbers cannot overflow the offset
	if page-1 >= PageCount(len(rows), pageSize) {
		return []model.ResolvedJobRow{}
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(rows))
	return rows[start:end:end]
}

// PageCount is the number of pages needed for total rows.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

func keep(rows []model.ResolvedJobRow, pred func(*model.ResolvedJobRow) bool) []model.ResolvedJobRow {
	out := make([]model.ResolvedJobRow, 0, len(rows))
	for i := range rows {
		if pred(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}
