package bullmq

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/target/bullboard/internal/domain/model"
)

// recordFromHash converts a BullMQ job hash into a raw record.
// Numeric fields that fail to parse are left absent; JSON fields that are not
// valid JSON are kept as JSON strings so the payload is still displayed.
func recordFromHash(id string, fields map[string]string) model.RawJobRecord {
	rec := model.RawJobRecord{ID: &id}

	if v, ok := fields["name"]; ok {
		rec.Name = &v
	}
	rec.Timestamp = intField(fields, "timestamp")
	rec.ProcessedOn = intField(fields, "processedOn")
	rec.FinishedOn = intField(fields, "finishedOn")
	rec.Delay = intField(fields, "delay")
	if rec.Delay != nil && *rec.Delay == 0 {
		rec.Delay = nil
	}

	if v, ok := fields["failedReason"]; ok && v != "" {
		rec.FailedReason = &v
	}
	if v, ok := fields["stacktrace"]; ok && v != "" {
		var trace []string
		if err := json.Unmarshal([]byte(v), &trace); err == nil {
			rec.Stacktrace = trace
		} else {
			rec.Stacktrace = []string{v}
		}
	}

	attempts := intField(fields, "attemptsMade")
	if attempts == nil {
		attempts = intField(fields, "atm")
	}
	if attempts != nil {
		n := int(*attempts)
		rec.AttemptsMade = &n
	}

	rec.Data = jsonField(fields, "data")
	rec.Opts = jsonField(fields, "opts")
	rec.Progress = jsonField(fields, "progress")
	rec.ReturnValue = jsonField(fields, "returnvalue")
	rec.Parent = jsonField(fields, "parent")
	if !model.HasValue(rec.Parent) {
		if v := fields["parentKey"]; v != "" {
			rec.Parent = mustJSON(map[string]string{"key": v})
		}
	}
	return rec
}

func intField(fields map[string]string, name string) *int64 {
	v, ok := fields[name]
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func jsonField(fields map[string]string, name string) json.RawMessage {
	v, ok := fields[name]
	if !ok || v == "" {
		return nil
	}
	if json.Valid([]byte(v)) {
		return json.RawMessage(v)
	}
	return mustJSON(v)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// hashFromRequest builds the job hash for a new job.
func hashFromRequest(req model.AddJobRequest, timestamp int64) (map[string]any, error) {
	opts := req.Options
	if opts == nil {
		opts = &model.JobOptions{}
	}
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	data := req.Data
	if !model.HasValue(data) {
		data = json.RawMessage("{}")
	}
	return map[string]any{
		"name":      req.Name,
		"data":      string(data),
		"opts":      string(optsJSON),
		"timestamp": timestamp,
		"delay":     opts.Delay,
		"priority":  opts.Priority,
		"atm":       0,
	}, nil
}
