package util //nolint:revive // package name util hosts shared formatting helpers used across HTTP templates

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TimestampLayout is the display layout for job timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable is shown for absent timestamps.
const NotAvailable = "N/A"

// FormatProcessingDuration formats a time.Duration for display, handling edge cases.
// Returns "—" for zero or negative durations, truncates to milliseconds for readability.
func FormatProcessingDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "—"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}

// FormatTimestamp renders an epoch-millisecond timestamp in loc.
// Only a nil timestamp is "N/A"; zero is the Unix epoch and is formatted.
func FormatTimestamp(ms *int64, loc *time.Location) string {
	if ms == nil {
		return NotAvailable
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(*ms).In(loc).Format(TimestampLayout)
}

// JobDuration returns the time between processing start and finish, or zero when either is missing.
func JobDuration(processedOn, finishedOn *int64) time.Duration {
	if processedOn == nil || finishedOn == nil {
		return 0
	}
	return time.Duration(*finishedOn-*processedOn) * time.Millisecond
}

// StatusColor maps a job status to the tag colour used by the job table.
func StatusColor(status string) string {
	switch strings.ToLower(status) {
	case "completed":
		return "success"
	case "failed":
		return "error"
	case "active":
		return "processing"
	case "waiting":
		return "default"
	case "delayed":
		return "warning"
	case "paused":
		return "purple"
	case "waiting-children":
		return "cyan"
	case "unknown":
		return "grey"
	case "error":
		return "magenta"
	default:
		return "default"
	}
}

// StatusLabel is the upper-cased tag text for a status.
// A Caser keeps state, so each call gets its own.
func StatusLabel(status string) string {
	return cases.Upper(language.Und).String(status)
}

// FormatJobCount renders "1 job" or "N jobs".
func FormatJobCount(n int) string {
	if n == 1 {
		return "1 job"
	}
	return strconv.Itoa(n) + " jobs"
}

// Percentage returns part/total as a rounded whole percentage, or 0 when total is not positive.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int((float64(part)*100)/float64(total) + 0.5)
}
