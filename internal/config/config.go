// Package config defines service configuration structures and loading hooks.
package config

import (
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogPath points at the CSV of companies to review. A missing file
	// falls back to the built-in sample rows.
	CatalogPath string `koanf:"catalog_path"`

	// SessionTimeoutSeconds is how long a holder may idle before its items are released.
	SessionTimeoutSeconds int `koanf:"session_timeout_seconds"`
	// SearchWindow bounds the scan for a free item.
	SearchWindow int `koanf:"search_window"`
	// MaxPreload caps GET /api/current?preload.
	MaxPreload int `koanf:"max_preload"`
	// UsernameMaxLength is the username limit in characters.
	UsernameMaxLength int `koanf:"username_max_length"`
	// SweepIntervalSeconds runs the background sweeper; 0 leaves expiry to requests.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`
	// RequestDedupeSize sets how many verdict request ids are remembered.
	RequestDedupeSize int `koanf:"request_dedupe_size"`

	// RateLimitRPS and RateLimitBurst throttle API requests per client; 0 disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
	// CORSAllowedOrigins is a comma separated list; "*" allows any origin.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
	// HolderCookie names the cookie carrying the anonymous holder id.
	HolderCookie string `koanf:"holder_cookie"`
	CookieSecure bool   `koanf:"cookie_secure"`

	// StoreBackend selects persistence: file, memory, redis or postgres.
	StoreBackend     string `koanf:"store_backend"`
	StatePath        string `koanf:"state_path"`
	RedisAddr        string `koanf:"redis_addr"`
	RedisPassword    string `koanf:"redis_password"`
	RedisDB          int    `koanf:"redis_db"`
	RedisKey         string `koanf:"redis_key"`
	PostgresDSN      string `koanf:"postgres_dsn"`
	PersistTimeoutMS int    `koanf:"persist_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":8080",
		CatalogPath:           "data/companies.csv",
		SessionTimeoutSeconds: 120,
		SearchWindow:          100,
		MaxPreload:            3,
		UsernameMaxLength:     50,
		SweepIntervalSeconds:  30,
		RequestDedupeSize:     10_000,
		RateLimitRPS:          20,
		RateLimitBurst:        40,
		CORSAllowedOrigins:    "*",
		HolderCookie:          "review_holder",
		StoreBackend:          "file",
		StatePath:             "data/review_state.json",
		RedisKey:              "reviewdesk:state",
		PersistTimeoutMS:      5000,
	}
}

// SessionTimeout returns the idle timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// SweepInterval returns the sweeper interval; zero means disabled.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// PersistTimeout bounds one state save.
func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.PersistTimeoutMS) * time.Millisecond
}

// AllowedOrigins splits CORSAllowedOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
