// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Keys are flat snake_case, matching the koanf tags below.
// - Load errors wrap ErrLoadConfig, validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ExactScorePoints and CorrectOutcomePoints are awarded per finalized game.
	ExactScorePoints     int `koanf:"exact_score_points"`
	CorrectOutcomePoints int `koanf:"correct_outcome_points"`

	// PointsCacheSize bounds the number of cached standings tables.
	PointsCacheSize int `koanf:"points_cache_size"`

	// IdempotencyCacheSize and IdempotencyTTL bound remembered Idempotency-Key values.
	IdempotencyCacheSize int           `koanf:"idempotency_cache_size"`
	IdempotencyTTL       time.Duration `koanf:"idempotency_ttl"`

	// FeedQueueSize bounds the in-memory change queue.
	FeedQueueSize int `koanf:"feed_queue_size"`

	// FeedWorkerCount sets the number of change publishers. One keeps order.
	FeedWorkerCount int `koanf:"feed_worker_count"`

	// RedisURL enables the Redis Streams change feed, e.g. "redis://localhost:6379/0".
	RedisURL string `koanf:"redis_url"`

	// RedisStreamPrefix prefixes per-competition stream keys.
	RedisStreamPrefix string `koanf:"redis_stream_prefix"`

	// RedisStreamMaxLen approximately caps each stream. Zero disables trimming.
	RedisStreamMaxLen int64 `koanf:"redis_stream_max_len"`

	// CORSAllowedOrigins is a comma-separated list of allowed browser origins.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// BootstrapCompetitionName and BootstrapCompetitionOwner create competition 1
	// at startup, administered by the given wallet.
	BootstrapCompetitionName  string `koanf:"bootstrap_competition_name"`
	BootstrapCompetitionOwner string `koanf:"bootstrap_competition_owner"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		ExactScorePoints:     3,
		CorrectOutcomePoints: 1,
		PointsCacheSize:      256,
		IdempotencyCacheSize: 50_000,
		IdempotencyTTL:       24 * time.Hour,
		FeedQueueSize:        10_000,
		FeedWorkerCount:      1,
		RedisStreamPrefix:    "meerkat.changes",
		CORSAllowedOrigins:   "*",
	}
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// HasBootstrapCompetition reports whether a competition is created at startup.
func (c *Config) HasBootstrapCompetition() bool {
	return c.BootstrapCompetitionName != "" || c.BootstrapCompetitionOwner != ""
}
