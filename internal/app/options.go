package service

import (
	"time"

	"github.com/okian/meerkat/internal/adapters/mq/worker"
	"github.com/okian/meerkat/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for start-time checks and change timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScoringPoints sets the exact-score and correct-outcome point values.
func WithScoringPoints(exact, outcome int) Option {
	return func(s *Service) {
		if exact > 0 {
			s.exactPoints = exact
		}
		if outcome > 0 {
			s.outcomePoints = outcome
		}
	}
}

// WithPointsCacheSize bounds the standings cache.
func WithPointsCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pointsCacheSize = size
		}
	}
}

// WithIdempotency sets how many Idempotency-Key values are remembered and for how long.
func WithIdempotency(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithFeed sets the change queue size and the number of publishing workers.
func WithFeed(queueSize, workers int) Option {
	return func(s *Service) {
		if queueSize > 0 {
			s.feedQueueSize = queueSize
		}
		if workers > 0 {
			s.feedWorkers = workers
		}
	}
}

// WithPublisher sets where changes are published. Defaults to the log.
func WithPublisher(p worker.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}
