package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix     = "MEERKAT_"
	EnvConfigFile = "MEERKAT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MEERKAT_CONFIG is set
//  3. env (prefix MEERKAT_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MEERKAT_FEED_QUEUE_SIZE -> feed_queue_size (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy of the defaults
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ExactScorePoints <= 0 || c.CorrectOutcomePoints <= 0 {
		return fmt.Errorf("%w: point values must be positive", ErrInvalidConfig)
	}
	if c.ExactScorePoints <= c.CorrectOutcomePoints {
		return fmt.Errorf("%w: exact_score_points must exceed correct_outcome_points", ErrInvalidConfig)
	}
	if c.FeedQueueSize <= 0 {
		return fmt.Errorf("%w: feed_queue_size must be positive", ErrInvalidConfig)
	}
	if c.HasBootstrapCompetition() && (c.BootstrapCompetitionName == "" || c.BootstrapCompetitionOwner == "") {
		return fmt.Errorf("%w: bootstrap competition needs both name and owner", ErrInvalidConfig)
	}
	return nil
}
