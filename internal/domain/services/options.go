package services

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ersonp/fishreg/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = func() time.Time { return time.Now().UTC() }

type options struct {
	logger   zerolog.Logger
	matcher  MatcherConfig
	index    ports.NameIndex
	embedder ports.Embedder
	now      func() time.Time
	blocking bool
}

// Option configures a service.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		logger:  zerolog.Nop(),
		matcher: DefaultMatcherConfig(),
		now:     timeNow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used by the service.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMatcherConfig overrides thresholds and scan limits.
func WithMatcherConfig(cfg MatcherConfig) Option {
	return func(o *options) { o.matcher = cfg.withDefaults() }
}

// WithNameIndex makes the matcher draw its global population from a
// nearest-neighbour name index, and keeps the index in sync on writes.
func WithNameIndex(index ports.NameIndex, embedder ports.Embedder) Option {
	return func(o *options) {
		if index != nil && embedder != nil {
			o.index = index
			o.embedder = embedder
		}
	}
}

// WithClock sets the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBlocking restricts duplicate detection to pairs sharing a block key.
func WithBlocking(enabled bool) Option {
	return func(o *options) { o.blocking = enabled }
}
