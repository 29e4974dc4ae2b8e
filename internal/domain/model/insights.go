package model

import "time"

// StatusInsight is one bar of the status distribution.
type StatusInsight struct {
	Status     string `json:"status"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	CountText  string `json:"countText"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// Insights summarises the status distribution across all queues.
type Insights struct {
	Statuses  []StatusInsight `json:"statuses"`
	TotalJobs int             `json:"totalJobs"`
	Empty     bool            `json:"empty"`
}

// JobDetail is the detail view of a single job.
type JobDetail struct {
	Row          ResolvedJobRow `json:"row"`
	StatusLabel  string         `json:"statusLabel"`
	StatusColor  string         `json:"statusColor"`
	CanRetry     bool           `json:"canRetry"`
	CreatedAt    string         `json:"createdAt"`
	ProcessedAt  string         `json:"processedAt"`
	FinishedAt   string         `json:"finishedAt"`
	Duration     string         `json:"duration,omitempty"`
	DataJSON     string         `json:"dataJson,omitempty"`
	OptsJSON     string         `json:"optsJson,omitempty"`
	ReturnJSON   string         `json:"returnJson,omitempty"`
	ProgressText string         `json:"progressText,omitempty"`
	ErrorTrace   string         `json:"errorTrace,omitempty"`
}

// BoardOverview carries the filter options and counts shown above the job table.
// LastError is the last failed refresh; Errors holds the per-operation slots.
type BoardOverview struct {
	Statuses  []string           `json:"statuses"`
	Queues    []string           `json:"queues"`
	Counts    []QueueStatusCount `json:"counts"`
	TotalJobs int                `json:"totalJobs"`
	FetchedAt time.Time          `json:"fetchedAt"`
	LastError string             `json:"lastError,omitempty"`
	Errors    map[string]string  `json:"errors,omitempty"`
}
