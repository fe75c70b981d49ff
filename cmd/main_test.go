package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/adapters/repository"
	"github.com/okian/reviewdesk/internal/config"
	"github.com/okian/reviewdesk/internal/domain/catalog"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.StoreBackend = repository.BackendMemory
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.csv")
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	return cfg
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("REVIEW_ADDR", ":9090")
		_ = os.Setenv("REVIEW_STORE_BACKEND", "memory")
		defer func() {
			_ = os.Unsetenv("REVIEW_ADDR")
			_ = os.Unsetenv("REVIEW_STORE_BACKEND")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("REVIEW_ADDR", "")
		defer func() { _ = os.Unsetenv("REVIEW_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainComponents(t *testing.T) {
	convey.Convey("Given a test configuration", t, func() {
		cfg := testConfig(t)
		ctx := context.Background()

		convey.Convey("When opening the store from config", func() {
			store, err := repository.Open(ctx, cfg.StoreBackend, storeOptions(cfg)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(store.Name(), convey.ShouldEqual, repository.BackendMemory)

			fileStore, err := repository.Open(ctx, repository.BackendFile, storeOptions(cfg)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(fileStore.Name(), convey.ShouldEqual, repository.BackendFile)
		})

		convey.Convey("When building the worker pool", func() {
			svc := newService(catalog.Sample(), repository.NewMemoryStore(), cfg)

			convey.So(newWorkerPool(svc, cfg).Size(), convey.ShouldEqual, 2)

			cfg.SweepIntervalSeconds = 0
			convey.So(newWorkerPool(svc, cfg).Size(), convey.ShouldEqual, 1)
		})

		convey.Convey("When building the HTTP server", func() {
			svc := newService(catalog.Sample(), repository.NewMemoryStore(), cfg)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			srv := newHTTPServer(ctx, svc, cfg)
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)

			for _, path := range []string{"/", "/admin", "/healthz", "/metrics", "/openapi.yaml", "/api-docs", "/api/test", "/api/progress"} {
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory backed configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("run returns cleanly when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			err := run(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("run fails on an unknown store backend", func() {
			cfg.StoreBackend = "tape"
			err := run(context.Background(), cfg)
			convey.So(errors.Is(err, repository.ErrUnknownBackend), convey.ShouldBeTrue)
		})

		convey.Convey("run fails when the listen address is taken", func() {
			ln := httptest.NewServer(http.NotFoundHandler())
			defer ln.Close()
			cfg.Addr = ln.Listener.Addr().String()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := run(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
