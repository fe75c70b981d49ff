package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/reviewdesk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"REVIEW_CONFIG", "REVIEW_ENV_FILE", "REVIEW_ADDR", "REVIEW_SESSION_TIMEOUT_SECONDS",
	"REVIEW_SEARCH_WINDOW", "REVIEW_STORE_BACKEND", "REVIEW_REDIS_ADDR", "REVIEW_RATE_LIMIT_RPS",
	"REVIEW_COOKIE_SECURE", "REVIEW_MAX_PRELOAD",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SessionTimeoutSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "file")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("REVIEW_ADDR", ":9090")
			_ = os.Setenv("REVIEW_SESSION_TIMEOUT_SECONDS", "300")
			_ = os.Setenv("REVIEW_STORE_BACKEND", "Memory")
			_ = os.Setenv("REVIEW_RATE_LIMIT_RPS", "2.5")
			_ = os.Setenv("REVIEW_COOKIE_SECURE", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SessionTimeoutSeconds, convey.ShouldEqual, 300)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.CookieSecure, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeTempFile(t, "review.yaml", `
addr: ":7000"
search_window: 25
max_preload: 1
store_backend: redis
redis_addr: "localhost:6379"
`)
			_ = os.Setenv("REVIEW_CONFIG", path)
			_ = os.Setenv("REVIEW_SEARCH_WINDOW", "40")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.SearchWindow, convey.ShouldEqual, 40)
				convey.So(cfg.MaxPreload, convey.ShouldEqual, 1)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			})
		})

		convey.Convey("When the YAML file is missing", func() {
			_ = os.Setenv("REVIEW_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a .env file is present", func() {
			path := writeTempFile(t, "review.env", "REVIEW_ADDR=:6060\nREVIEW_MAX_PRELOAD=2\n")
			_ = os.Setenv("REVIEW_ENV_FILE", path)
			_ = os.Setenv("REVIEW_MAX_PRELOAD", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.MaxPreload, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the settings are invalid", func() {
			cases := map[string]string{
				"REVIEW_ADDR":                    "",
				"REVIEW_SESSION_TIMEOUT_SECONDS": "0",
				"REVIEW_SEARCH_WINDOW":           "-1",
				"REVIEW_STORE_BACKEND":           "gist",
			}

			convey.Convey("Then each one is rejected", func() {
				for k, v := range cases {
					clearConfigEnvVars()
					if k == "REVIEW_ADDR" {
						path := writeTempFile(t, "empty.yaml", "addr: \"\"\n")
						_ = os.Setenv("REVIEW_CONFIG", path)
					} else {
						_ = os.Setenv(k, v)
					}
					_, err := config.Load(ctx)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				}
			})

			convey.Convey("Then a redis backend without an address is rejected", func() {
				clearConfigEnvVars()
				_ = os.Setenv("REVIEW_STORE_BACKEND", "redis")
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			convey.Convey("Then Load returns the context error", func() {
				_, err := config.Load(cctx)
				convey.So(err, convey.ShouldEqual, context.Canceled)
			})
		})
	})
}
