package jobview

import (
	"cmp"
	"slices"
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// sortKey is a column value; missing keys sort last in either direction.
type sortKey struct {
	missing bool
	numeric bool
	num     int64
	str     string
}

func stringKey(s string) sortKey {
	if s == "" {
		return sortKey{missing: true}
	}
	return sortKey{str: s}
}

func numberKey(n *int64) sortKey {
	if n == nil {
		return sortKey{missing: true}
	}
	return sortKey{numeric: true, num: *n}
}

func columnKey(r *model.ResolvedJobRow, column string) sortKey {
	switch column {
	case model.ColumnID:
		return stringKey(r.ID)
	case model.ColumnName:
		return stringKey(r.Name)
	case model.ColumnQueueName:
		return stringKey(r.QueueName)
	case model.ColumnStatus:
		return stringKey(r.CurrentStatus)
	case model.ColumnTimestamp:
		return numberKey(&r.Timestamp)
	case model.ColumnProcessedOn:
		return numberKey(r.ProcessedOn)
	case model.ColumnFinishedOn:
		return numberKey(r.FinishedOn)
	case model.ColumnAttemptsMade:
		n := int64(r.AttemptsMade)
		return numberKey(&n)
	case model.ColumnDelay:
		return numberKey(r.Delay)
	default:
		return sortKey{missing: true}
	}
}

func compareKeys(a, b sortKey, dir model.SortDirection) int {
	switch {
	case a.missing && b.missing:
		return 0
	case a.missing:
		return 1
	case b.missing:
		return -1
	}

	var c int
	if a.numeric && b.numeric {
		c = cmp.Compare(a.num, b.num)
	} else {
		c = strings.Compare(a.str, b.str)
	}
	if dir == model.SortDescend {
		return -c
	}
	return c
}

// Sort returns a stably sorted copy of rows. Unknown columns and an empty
// direction leave the order unchanged.
func Sort(rows []model.ResolvedJobRow, column string, dir model.SortDirection) []model.ResolvedJobRow {
	out := slices.Clone(rows)
	if !model.IsSortableColumn(column) || (dir != model.SortAscend && dir != model.SortDescend) {
		return out
	}

	keys := make([]sortKey, len(out))
	idx := make([]int, len(out))
	for i := range out {
		idx[i] = i
		keys[i] = columnKey(&out[i], column)
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return compareKeys(keys[a], keys[b], dir)
	})

	sorted := make([]model.ResolvedJobRow, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}
