package config

import (
	"strings"
	"time"

	domainjob "github.com/target/bullboard/internal/domain/job"
	"github.com/target/bullboard/internal/domain/model"
)

// BoardConfig contains queue board configuration.
type BoardConfig struct {
	// KeyPrefix is the BullMQ Redis key prefix.
	KeyPrefix string `env:"BOARD_KEY_PREFIX" envDefault:"bull"`

	// Queues is an explicit, ordered queue list. When empty the queues are discovered in Redis.
	Queues []string `env:"BOARD_QUEUES" envDefault:""`

	DefaultPageSize int `env:"BOARD_DEFAULT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize     int `env:"BOARD_MAX_PAGE_SIZE"     envDefault:"100"`

	// JobsPerState caps how many jobs are read from each queue state per refresh.
	JobsPerState int `env:"BOARD_JOBS_PER_STATE" envDefault:"200"`

	// FetchConcurrency bounds how many queues are read in parallel.
	FetchConcurrency int `env:"BOARD_FETCH_CONCURRENCY" envDefault:"4"`

	// SnapshotTTL is how long a fetched snapshot is served before the backend is asked again.
	SnapshotTTL time.Duration `env:"BOARD_SNAPSHOT_TTL" envDefault:"2s"`

	// FetchTimeout bounds one snapshot fetch regardless of which request started it.
	FetchTimeout time.Duration `env:"BOARD_FETCH_TIMEOUT" envDefault:"30s"`

	// RefreshSchedule is a cron expression or descriptor such as "@every 5s".
	RefreshSchedule string `env:"BOARD_REFRESH_SCHEDULE" envDefault:"@every 5s"`

	// StatusFallback is the status of records no resolver rule matches: waiting or unknown.
	StatusFallback domainjob.StatusFallback `env:"BOARD_STATUS_FALLBACK" envDefault:"waiting"`

	// Timezone is the IANA zone used to format timestamps.
	Timezone string `env:"BOARD_TIMEZONE" envDefault:"UTC"`

	// SharedCache publishes snapshots in Redis so replicas share one fetch.
	SharedCache bool `env:"BOARD_SHARED_CACHE" envDefault:"true"`
}

// Sanitize applies guardrails to board configuration values.
func (b *BoardConfig) Sanitize() {
	b.KeyPrefix = strings.TrimSuffix(strings.TrimSpace(b.KeyPrefix), ":")
	if b.KeyPrefix == "" {
		b.KeyPrefix = domainjob.DefaultPrefix
	}
	if b.MaxPageSize < 1 {
		b.MaxPageSize = 100
	}
	if b.DefaultPageSize < 1 {
		b.DefaultPageSize = model.DefaultPageSize
	}
	b.DefaultPageSize = min(b.DefaultPageSize, b.MaxPageSize)
	if b.JobsPerState < 1 {
		b.JobsPerState = 1
	}
	if b.FetchConcurrency < 1 {
		b.FetchConcurrency = 1
	}
	if b.SnapshotTTL < 0 {
		b.SnapshotTTL = 0
	}
	if b.FetchTimeout <= 0 {
		b.FetchTimeout = 30 * time.Second
	}
	if strings.TrimSpace(b.RefreshSchedule) == "" {
		b.RefreshSchedule = "@every 5s"
	}
	if !b.StatusFallback.Valid() {
		b.StatusFallback = domainjob.FallbackWaiting
	}
	if strings.TrimSpace(b.Timezone) == "" {
		b.Timezone = "UTC"
	}
}

// QueueRefs returns the explicit queue list.
func (b *BoardConfig) QueueRefs() []model.QueueRef {
	refs := make([]model.QueueRef, 0, len(b.Queues))
	for _, q := range b.Queues {
		refs = append(refs, model.QueueRef{Name: q})
	}
	return refs
}

// Location loads Timezone, falling back to UTC when it is unknown.
func (b *BoardConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}
