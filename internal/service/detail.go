package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/util"
)

// BuildDetail renders the display fields of a job detail view.
func BuildDetail(row model.ResolvedJobRow, loc *time.Location) model.JobDetail {
	timestamp := row.Timestamp
	d := model.JobDetail{
		Row:          row,
		StatusLabel:  util.StatusLabel(row.CurrentStatus),
		StatusColor:  util.StatusColor(row.CurrentStatus),
		CanRetry:     row.CanRetry(),
		CreatedAt:    util.FormatTimestamp(&timestamp, loc),
		ProcessedAt:  util.FormatTimestamp(row.ProcessedOn, loc),
		FinishedAt:   util.FormatTimestamp(row.FinishedOn, loc),
		DataJSON:     model.PrettyJSON(row.Data),
		OptsJSON:     model.PrettyJSON(row.Opts),
		ReturnJSON:   model.PrettyJSON(row.ReturnValue),
		ProgressText: progressText(row.Progress),
		ErrorTrace:   errorTrace(row.FailedReason, row.Stacktrace),
	}
	if dur := util.JobDuration(row.ProcessedOn, row.FinishedOn); dur > 0 {
		d.Duration = util.FormatProcessingDuration(dur)
	}
	return d
}

// progressText shows objects as JSON and scalars as plain text.
func progressText(raw json.RawMessage) string {
	if !model.HasValue(raw) {
		return ""
	}
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return model.PrettyJSON(trimmed)
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

func errorTrace(reason string, stack []string) string {
	parts := make([]string, 0, len(stack)+1)
	if reason != "" {
		parts = append(parts, reason)
	}
	for _, line := range stack {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n")
}
