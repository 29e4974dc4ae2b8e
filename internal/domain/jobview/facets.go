package jobview

import (
	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/util"
)

// Statuses returns the options for the status filter: the default statuses
// followed by any other status observed in rows, in first-seen order.
func Statuses(rows []model.ResolvedJobRow) []string {
	out := model.DefaultStatuses()
	seen := make(map[string]struct{}, len(out))
	for _, s := range out {
		seen[s] = struct{}{}
	}
	for i := range rows {
		s := rows[i].CurrentStatus
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// QueueNames returns the options for the queue filter and the add-job queue
// picker. A non-empty external list wins; otherwise names are collected from
// rows in first-seen order.
func QueueNames(external []model.QueueInfo, rows []model.ResolvedJobRow) []string {
	if len(external) > 0 {
		out := make([]string, 0, len(external))
		for _, q := range external {
			out = append(out, q.Name)
		}
		return out
	}
	out := []string{}
	seen := map[string]struct{}{}
	for i := range rows {
		name := rows[i].QueueName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// QueueStatusCounts groups rows by (queue, status). Pairs appear in first-seen order.
func QueueStatusCounts(rows []model.ResolvedJobRow) []model.QueueStatusCount {
	type pair struct{ queue, status string }
	index := map[pair]int{}
	out := []model.QueueStatusCount{}
	for i := range rows {
		p := pair{rows[i].QueueName, rows[i].CurrentStatus}
		if at, ok := index[p]; ok {
			out[at].Count++
			continue
		}
		index[p] = len(out)
		out = append(out, model.QueueStatusCount{Queue: p.queue, Status: p.status, Count: 1})
	}
	return out
}

// Summaries builds the queue-management view. Queues come from QueueNames;
// pause state comes from the external list when it has one.
func Summaries(external []model.QueueInfo, rows []model.ResolvedJobRow) []model.QueueSummary {
	paused := make(map[string]bool, len(external))
	for _, q := range external {
		paused[q.Name] = q.IsPaused
	}
	names := QueueNames(external, rows)
	byName := make(map[string]*model.QueueSummary, len(names))
	out := make([]model.QueueSummary, len(names))
	for i, name := range names {
		out[i] = model.QueueSummary{Name: name, IsPaused: paused[name], Counts: map[string]int{}}
		byName[name] = &out[i]
	}
	for _, c := range QueueStatusCounts(rows) {
		s, ok := byName[c.Queue]
		if !ok {
			continue
		}
		s.Counts[c.Status] += c.Count
		s.Total += c.Count
	}
	return out
}

// Insights computes the status distribution across all rows. Only statuses
// with at least one job are listed, in Statuses order.
func Insights(rows []model.ResolvedJobRow) model.Insights {
	counts := map[string]int{}
	for i := range rows {
		counts[rows[i].CurrentStatus]++
	}
	total := len(rows)
	out := model.Insights{Statuses: []model.StatusInsight{}, TotalJobs: total, Empty: total == 0}
	for _, status := range Statuses(rows) {
		n := counts[status]
		if n == 0 {
			continue
		}
		out.Statuses = append(out.Statuses, model.StatusInsight{
			Status:     status,
			Label:      util.StatusLabel(status),
			Count:      n,
			CountText:  util.FormatJobCount(n),
			Percentage: util.Percentage(n, total),
			Color:      util.StatusColor(status),
		})
	}
	return out
}
