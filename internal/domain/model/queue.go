package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QueueRef is a queue reference that arrives either as a bare string or as
// an object carrying a name and an optional pause flag.
type QueueRef struct {
	Name     string `json:"name"`
	IsPaused bool   `json:"isPaused,omitempty"`
}

// UnmarshalJSON accepts "emails" as well as {"name":"emails","isPaused":true}.
func (q *QueueRef) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*q = QueueRef{}
		return nil
	}
	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return fmt.Errorf("decode queue name: %w", err)
		}
		*q = QueueRef{Name: name}
		return nil
	}
	type plain QueueRef
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return fmt.Errorf("decode queue object: %w", err)
	}
	*q = QueueRef(p)
	return nil
}

// QueueInfo describes a queue known to the backend.
type QueueInfo struct {
	Name     string `json:"name"`
	IsPaused bool   `json:"isPaused"`
}

// QueueInfosFromRefs converts externally supplied queue references, dropping blank names and duplicates.
func QueueInfosFromRefs(refs []QueueRef) []QueueInfo {
	out := make([]QueueInfo, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, QueueInfo{Name: name, IsPaused: ref.IsPaused})
	}
	return out
}

// QueueStatusCount is the number of rows for one (queue, status) pair.
type QueueStatusCount struct {
	Queue  string `json:"queue"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// QueueSummary is the queue-management view of a queue.
type QueueSummary struct {
	Name     string         `json:"name"`
	IsPaused bool           `json:"isPaused"`
	Total    int            `json:"total"`
	Counts   map[string]int `json:"counts"`
}
