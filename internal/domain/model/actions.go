package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Operation names a job or queue action routed through the queue backend.
type Operation string

const (
	OpRetry     Operation = "retry"
	OpDelete    Operation = "delete"
	OpLogs      Operation = "logs"
	OpAddJob    Operation = "add_job"
	OpPause     Operation = "pause"
	OpResume    Operation = "resume"
	OpClean     Operation = "clean"
	OpRefresh   Operation = "refresh"
	OpGetJob    Operation = "get_job"
	OpListQueue Operation = "list_queues"
)

// JobRef addresses a single job. Ids are only unique within a queue.
type JobRef struct {
	Queue string `json:"queue"`
	ID    string `json:"id"`
}

// BackoffOptions configures retry backoff. A bare number on the wire means a fixed delay.
type BackoffOptions struct {
	Type  string `json:"type"`
	Delay int64  `json:"delay"`
}

// UnmarshalJSON accepts either a number (fixed delay in ms) or {"type","delay"}.
func (b *BackoffOptions) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var delay int64
		if err := json.Unmarshal(trimmed, &delay); err != nil {
			return err
		}
		*b = BackoffOptions{Type: "fixed", Delay: delay}
		return nil
	}
	type plain BackoffOptions
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*b = BackoffOptions(p)
	return nil
}

// KeepJobs configures removeOnComplete/removeOnFail in object form.
type KeepJobs struct {
	Count int   `json:"count,omitempty"`
	Age   int64 `json:"age,omitempty"`
}

// RepeatOptions configures repeatable jobs.
type RepeatOptions struct {
	Every   int64  `json:"every,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	TZ      string `json:"tz,omitempty"`
	EndDate int64  `json:"endDate,omitempty"`
}

// JobOptions mirrors the BullMQ job options accepted by the add-job form.
// RemoveOnComplete and RemoveOnFail hold a bool, a count or a KeepJobs object as raw JSON.
type JobOptions struct {
	Delay            int64           `json:"delay,omitempty"`
	Attempts         int             `json:"attempts,omitempty"`
	JobID            string          `json:"jobId,omitempty"`
	LIFO             bool            `json:"lifo,omitempty"`
	Timeout          int64           `json:"timeout,omitempty"`
	Priority         int             `json:"priority,omitempty"`
	StackTraceLimit  int             `json:"stackTraceLimit,omitempty"`
	Backoff          *BackoffOptions `json:"backoff,omitempty"`
	RemoveOnComplete json.RawMessage `json:"removeOnComplete,omitempty"`
	RemoveOnFail     json.RawMessage `json:"removeOnFail,omitempty"`
	Repeat           *RepeatOptions  `json:"repeat,omitempty"`
}

// AddJobRequest is the input of the add-job operation.
type AddJobRequest struct {
	Queue   string          `json:"queue"`
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data"`
	Options *JobOptions     `json:"options,omitempty"`
}

// ParseJobData turns user-entered job data into a JSON payload: valid JSON is
// kept as-is, anything else is stored as a JSON string.
func ParseJobData(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	encoded, err := json.Marshal(text)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return encoded
}

// PrettyJSON indents a raw JSON value for display, returning the input unchanged when it is not valid JSON.
func PrettyJSON(raw json.RawMessage) string {
	if !HasValue(raw) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
