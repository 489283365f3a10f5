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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if BOARD_CONFIG is set
//  3. env (prefix BOARD_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("BOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BOARD_ADDR, BOARD_SETTLE_DELAY_MS, ...
	// Keys map to the koanf tags with underscores preserved.
	envProvider := env.Provider("BOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "board_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CanvasWidth <= 0 || c.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas dimensions must be positive", ErrInvalidConfig)
	case c.MinScale <= 0 || c.MaxScale <= c.MinScale:
		return fmt.Errorf("%w: scale clamp must satisfy 0 < min < max", ErrInvalidConfig)
	case c.SettleDelayMS <= 0 || c.SampleIntervalMS <= 0:
		return fmt.Errorf("%w: capture timings must be positive", ErrInvalidConfig)
	case c.FrameRetentionSec <= 0:
		return fmt.Errorf("%w: frame retention must be positive", ErrInvalidConfig)
	}
	return nil
}
