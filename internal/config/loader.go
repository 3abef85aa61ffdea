package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CALCIO_CONFIG is set
//  3. env (prefix CALCIO_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CALCIO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: CALCIO_ADDR, CALCIO_DB_DRIVER, ...
	// Map env keys like CALCIO_DB_DRIVER -> db_driver (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CALCIO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "calcio_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres_dsn must not be empty", ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, cfg.DBDriver)
	}
	return &cfg, nil
}
