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

// Environment variable names.
const (
	EnvPrefix     = "WARRIORS_"
	EnvConfigFile = "WARRIORS_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if WARRIORS_CONFIG is set
//  3. env (prefix WARRIORS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// WARRIORS_BATCH_SIZE -> batch_size. Underscores are kept so keys match
	// the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every entrypoint relies on.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("%w: bucket must not be empty", ErrInvalidConfig)
	case c.SeedKey == "":
		return fmt.Errorf("%w: seed_key must not be empty", ErrInvalidConfig)
	case c.Table == "":
		return fmt.Errorf("%w: table must not be empty", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BatchSize < 1 || c.BatchSize > 10_000:
		return fmt.Errorf("%w: batch_size must be in [1,10000], got %d", ErrInvalidConfig, c.BatchSize)
	case c.MaxReceiveCount < 1:
		return fmt.Errorf("%w: max_receive_count must be positive", ErrInvalidConfig)
	case c.OpTimeoutMS < 1:
		return fmt.Errorf("%w: op_timeout_ms must be positive", ErrInvalidConfig)
	case c.DeadlineMarginMS < 0:
		return fmt.Errorf("%w: deadline_margin_ms must not be negative", ErrInvalidConfig)
	}
	switch c.FailureMode {
	case FailureSignal, FailureReport, FailureSwallow:
	default:
		return fmt.Errorf("%w: unknown failure_mode %q", ErrInvalidConfig, c.FailureMode)
	}
	return nil
}
