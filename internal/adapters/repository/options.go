package repository

import (
	"time"

	"github.com/okian/meerkat/internal/domain/scoring"
)

// Option applies a configuration option to the MemoryLedger.
type Option func(*MemoryLedger)

// WithClock sets the clock used to decide whether a game has started.
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithEngine sets the scoring engine used by Points.
func WithEngine(e *scoring.Engine) Option {
	return func(l *MemoryLedger) {
		if e != nil {
			l.engine = e
		}
	}
}
