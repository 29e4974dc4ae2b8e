package httpx

import (
	"net/url"
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// Default page-size bounds used when the router is built without explicit limits.
const (
	DefaultMaxPageSize = 100
)

// PageLimits bounds the page size accepted from query strings.
type PageLimits struct {
	Default int
	Max     int
}

func (l PageLimits) normalize() PageLimits {
	if l.Default < 1 {
		l.Default = model.DefaultPageSize
	}
	if l.Max < 1 {
		l.Max = DefaultMaxPageSize
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// ParseSortParam extracts the sort column and direction from URL query parameters.
// It supports two formats:
// 1. Combined format: ?sort=field:dir (e.g., ?sort=timestamp:desc)
// 2. Separate format: ?sort=field&dir=direction
//
// asc/ascend and desc/descend are accepted; an unknown direction yields "".
func ParseSortParam(q url.Values, sortKey, dirKey string) (string, model.SortDirection) {
	sortParam := strings.TrimSpace(q.Get(sortKey))
	dirParam := q.Get(dirKey)

	if field, dirPart, ok := strings.Cut(sortParam, ":"); ok {
		dir, _ := model.ParseSortDirection(dirPart)
		return strings.TrimSpace(field), dir
	}

	dir, _ := model.ParseSortDirection(dirParam)
	return sortParam, dir
}

// ParseFilterState builds the table filter from query parameters:
// q, status (repeatable or comma separated), queue, sort, dir, page, page_size and data_query.
// Missing values keep the table defaults. Column and data query validity is checked by the board service.
func ParseFilterState(q url.Values, limits PageLimits) model.FilterState {
	limits = limits.normalize()
	f := model.DefaultFilterState(limits.Default)

	f.SearchText = q.Get("q")
	if statuses := splitMulti(q["status"]); len(statuses) > 0 {
		f.StatusFilters = statuses
	}
	if queue := strings.TrimSpace(q.Get("queue")); queue != "" {
		f.QueueFilter = queue
	}
	if col, dir := ParseSortParam(q, "sort", "dir"); col != "" {
		f.SortColumn = col
		f.SortDirection = dir
		if dir == "" {
			f.SortDirection = model.SortAscend
		}
	}
	f.CurrentPage = max(parseIntValue(q.Get("page"), 1), 1)
	size := parseIntValue(q.Get("page_size"), limits.Default)
	f.PageSize = min(max(size, 1), limits.Max)
	f.DataQuery = strings.TrimSpace(q.Get("data_query"))
	return f
}

// FilterQuery renders f back into query parameters, omitting defaults.
func FilterQuery(f model.FilterState, page int) url.Values {
	q := url.Values{}
	if f.SearchText != "" {
		q.Set("q", f.SearchText)
	}
	if f.FiltersStatus() {
		q.Set("status", strings.Join(f.StatusFilters, ","))
	}
	if f.FiltersQueue() {
		q.Set("queue", f.QueueFilter)
	}
	if f.Sorted() {
		q.Set("sort", f.SortColumn+":"+string(f.SortDirection))
	}
	if f.DataQuery != "" {
		q.Set("data_query", f.DataQuery)
	}
	q.Set("page", itoa(page))
	q.Set("page_size", itoa(f.PageSize))
	return q
}

func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
