package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read before the koanf layers.
const (
	EnvPrefix  = "REVIEW_"
	EnvConfig  = "REVIEW_CONFIG"
	EnvDotFile = "REVIEW_ENV_FILE"
)

var backends = map[string]bool{"file": true, "memory": true, "redis": true, "postgres": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if REVIEW_CONFIG is set
//  3. env (prefix REVIEW_), after a .env file has been merged into the
//     process environment without overriding variables already set
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dotenv := os.Getenv(EnvDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, dotenv, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// REVIEW_STORE_BACKEND -> store_backend
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SessionTimeoutSeconds <= 0:
		return fmt.Errorf("%w: session_timeout_seconds must be positive", ErrInvalidConfig)
	case c.SearchWindow <= 0:
		return fmt.Errorf("%w: search_window must be positive", ErrInvalidConfig)
	case c.MaxPreload < 0:
		return fmt.Errorf("%w: max_preload must not be negative", ErrInvalidConfig)
	case c.UsernameMaxLength <= 0:
		return fmt.Errorf("%w: username_max_length must be positive", ErrInvalidConfig)
	case c.SweepIntervalSeconds < 0:
		return fmt.Errorf("%w: sweep_interval_seconds must not be negative", ErrInvalidConfig)
	case !backends[c.StoreBackend]:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	case c.StoreBackend == "redis" && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
	case c.StoreBackend == "postgres" && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres backend", ErrInvalidConfig)
	}
	return nil
}
