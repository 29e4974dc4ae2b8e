// Package job derives display fields (status, queue name, resolved rows) from raw BullMQ job records.
package job

import (
	"time"

	"github.com/target/bullboard/internal/domain/model"
)

// ResolveStatus maps a record to exactly one status string. The first matching
// rule wins:
//
//  1. explicit non-empty status, verbatim
//  2. finishedOn set: failed when a failure reason or stacktrace exists, else completed
//  3. processedOn set: active
//  4. delay set and timestamp+delay after now: delayed
//  5. isPaused: paused
//  6. parent set: waiting-children
//  7. fallback
//
// Rule 4 depends on now, so results for delayed jobs change over time.
func ResolveStatus(rec *model.RawJobRecord, now time.Time, fallback string) string {
	if rec == nil {
		return fallback
	}
	if rec.Status != nil && *rec.Status != "" {
		return *rec.Status
	}
	if rec.FinishedOn != nil {
		if hasFailure(rec) {
			return model.StatusFailed
		}
		return model.StatusCompleted
	}
	if rec.ProcessedOn != nil {
		return model.StatusActive
	}
	if isDelayed(rec, now) {
		return model.StatusDelayed
	}
	if rec.IsPaused != nil && *rec.IsPaused {
		return model.StatusPaused
	}
	if rec.HasParent() {
		return model.StatusWaitingChildren
	}
	return fallback
}

func hasFailure(rec *model.RawJobRecord) bool {
	if rec.FailedReason != nil && *rec.FailedReason != "" {
		return true
	}
	return len(rec.Stacktrace) > 0
}

// isDelayed needs both delay and timestamp; a delay without a creation time cannot be placed on the clock.
func isDelayed(rec *model.RawJobRecord, now time.Time) bool {
	if rec.Delay == nil || rec.Timestamp == nil {
		return false
	}
	return *rec.Timestamp+*rec.Delay > now.UnixMilli()
}
