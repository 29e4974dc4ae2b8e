package model

import (
	"sort"
	"strconv"
	"strings"
)

// FilterAll is the sentinel filter value meaning "do not filter on this dimension".
const FilterAll = "ALL"

// SortDirection is the table sort order.
type SortDirection string

const (
	// SortAscend sorts smallest first.
	SortAscend SortDirection = "ascend"
	// SortDescend sorts largest first.
	SortDescend SortDirection = "descend"
)

// ParseSortDirection normalises the accepted spellings of a sort direction.
func ParseSortDirection(raw string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ascend", "asc":
		return SortAscend, true
	case "descend", "desc":
		return SortDescend, true
	default:
		return "", false
	}
}

// Sortable columns of the job table.
const (
	ColumnID           = "id"
	ColumnName         = "name"
	ColumnQueueName    = "queueName"
	ColumnStatus       = "currentStatus"
	ColumnTimestamp    = "timestamp"
	ColumnProcessedOn  = "processedOn"
	ColumnFinishedOn   = "finishedOn"
	ColumnAttemptsMade = "attemptsMade"
	ColumnDelay        = "delay"
)

// Table defaults: newest jobs first, ten rows per page.
const (
	DefaultSortColumn    = ColumnTimestamp
	DefaultSortDirection = SortDescend
	DefaultPageSize      = 10
)

// SortableColumns returns the column keys accepted by the view builder.
func SortableColumns() []string {
	return []string{
		ColumnID,
		ColumnName,
		ColumnQueueName,
		ColumnStatus,
		ColumnTimestamp,
		ColumnProcessedOn,
		ColumnFinishedOn,
		ColumnAttemptsMade,
		ColumnDelay,
	}
}

// IsSortableColumn reports whether col is a known sortable column.
func IsSortableColumn(col string) bool {
	for _, c := range SortableColumns() {
		if c == col {
			return true
		}
	}
	return false
}

// FilterState is the user-controlled input of the view builder.
type FilterState struct {
	SearchText    string        `json:"searchText"`
	StatusFilters []string      `json:"statusFilters"`
	QueueFilter   string        `json:"queueFilter"`
	SortColumn    string        `json:"sortColumn,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
	CurrentPage   int           `json:"currentPage"`
	PageSize      int           `json:"pageSize"`
	// DataQuery is an optional JMESPath expression evaluated against job data.
	DataQuery string `json:"dataQuery,omitempty"`
}

// DefaultFilterState returns the initial state of the job table.
func DefaultFilterState(pageSize int) FilterState {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return FilterState{
		StatusFilters: []string{FilterAll},
		QueueFilter:   FilterAll,
		SortColumn:    DefaultSortColumn,
		SortDirection: DefaultSortDirection,
		CurrentPage:   1,
		PageSize:      pageSize,
	}
}

// FiltersQueue reports whether the queue filter stage is active.
func (f FilterState) FiltersQueue() bool {
	return f.QueueFilter != "" && f.QueueFilter != FilterAll
}

// FiltersStatus reports whether the status filter stage is active.
func (f FilterState) FiltersStatus() bool {
	if len(f.StatusFilters) == 0 {
		return false
	}
	for _, s := range f.StatusFilters {
		if s == FilterAll {
			return false
		}
	}
	return true
}

// Sorted reports whether both a sort column and direction are set.
func (f FilterState) Sorted() bool {
	return f.SortColumn != "" && f.SortDirection != ""
}

// Key returns a stable string identifying the filter state, used for memoization.
func (f FilterState) Key() string {
	statuses := append([]string(nil), f.StatusFilters...)
	sort.Strings(statuses)

	var b strings.Builder
	b.WriteString(f.QueueFilter)
	b.WriteByte(0)
	b.WriteString(f.SearchText)
	b.WriteByte(0)
	b.WriteString(strings.Join(statuses, ","))
	b.WriteByte(0)
	b.WriteString(f.DataQuery)
	b.WriteByte(0)
	b.WriteString(f.SortColumn)
	b.WriteByte(':')
	b.WriteString(string(f.SortDirection))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(f.CurrentPage))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(f.PageSize))
	return b.String()
}

// JobPage is the output of the view builder for one filter state.
type JobPage struct {
	Rows     []ResolvedJobRow `json:"rows"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}
