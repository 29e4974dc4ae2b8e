package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/target/bullboard/internal/domain/model"
)

// StatusFallback is the status returned when no resolver rule matches.
//
//nolint:recvcheck // UnmarshalText needs a pointer receiver, Valid a value receiver
type StatusFallback string

const (
	// FallbackWaiting treats unmatched records as waiting jobs.
	FallbackWaiting StatusFallback = model.StatusWaiting
	// FallbackUnknown is the legacy behaviour that labels unmatched records unknown.
	FallbackUnknown StatusFallback = model.StatusUnknown
)

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (f *StatusFallback) UnmarshalText(text []byte) error {
	v := StatusFallback(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		*f = FallbackWaiting
		return nil
	}
	if !v.Valid() {
		return fmt.Errorf("invalid status fallback: %q (valid options: waiting, unknown)", v)
	}
	*f = v
	return nil
}

// Valid reports whether f is a supported fallback.
func (f StatusFallback) Valid() bool {
	return f == FallbackWaiting || f == FallbackUnknown
}

// Resolver turns raw records into resolved rows.
// The zero value uses the wall clock, the "bull" prefix and the waiting fallback.
type Resolver struct {
	Now      func() time.Time
	Fallback StatusFallback
	Prefix   string
}

func (r Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r Resolver) fallback() string {
	if !r.Fallback.Valid() {
		return string(FallbackWaiting)
	}
	return string(r.Fallback)
}

func (r Resolver) prefix() string {
	if r.Prefix == "" {
		return DefaultPrefix
	}
	return r.Prefix
}

// Status resolves the record status against the resolver clock.
func (r Resolver) Status(rec *model.RawJobRecord) string {
	return ResolveStatus(rec, r.now(), r.fallback())
}

// QueueName resolves the record queue name using the resolver prefix.
func (r Resolver) QueueName(rec *model.RawJobRecord) string {
	return ResolveQueueNameWithPrefix(rec, r.prefix())
}

// Resolve builds the row for one record. A missing creation time falls back to the resolution time.
func (r Resolver) Resolve(rec *model.RawJobRecord) model.ResolvedJobRow {
	now := r.now()
	row := model.ResolvedJobRow{
		CurrentStatus: ResolveStatus(rec, now, r.fallback()),
		QueueName:     ResolveQueueNameWithPrefix(rec, r.prefix()),
		Timestamp:     now.UnixMilli(),
		Original:      rec,
	}
	if rec == nil {
		return row
	}

	row.ID = rec.IDValue()
	if rec.Name != nil {
		row.Name = *rec.Name
	}
	if rec.Timestamp != nil && *rec.Timestamp != 0 {
		row.Timestamp = *rec.Timestamp
	}
	row.ProcessedOn = rec.ProcessedOn
	row.FinishedOn = rec.FinishedOn
	row.Data = rec.Data
	row.Opts = rec.Opts
	if rec.FailedReason != nil {
		row.FailedReason = *rec.FailedReason
	}
	row.Stacktrace = rec.Stacktrace
	if rec.AttemptsMade != nil {
		row.AttemptsMade = *rec.AttemptsMade
	}
	row.Delay = rec.Delay
	row.Progress = rec.Progress
	row.ReturnValue = rec.ReturnValue
	return row
}

// ResolveAll maps records to rows one-to-one, preserving order.
func (r Resolver) ResolveAll(recs []model.RawJobRecord) []model.ResolvedJobRow {
	rows := make([]model.ResolvedJobRow, 0, len(recs))
	for i := range recs {
		rows = append(rows, r.Resolve(&recs[i]))
	}
	return rows
}
