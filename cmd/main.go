package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/reviewdesk/internal/adapters/http/api"
	"github.com/okian/reviewdesk/internal/adapters/http/site"
	"github.com/okian/reviewdesk/internal/adapters/http/swagger"
	"github.com/okian/reviewdesk/internal/adapters/repository"
	"github.com/okian/reviewdesk/internal/adapters/worker"
	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/config"
	"github.com/okian/reviewdesk/internal/domain/catalog"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	metricsInterval           = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, "review desk stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run starts every component and blocks until ctx is canceled or the HTTP
// server fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	cat, err := catalog.Load(ctx, cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info(ctx, "catalog loaded",
		logger.String("source", cat.Source()),
		logger.Int("items", cat.Len()),
	)
	metrics.UpdateCatalogSize(cat.Len())

	store, err := repository.Open(ctx, cfg.StoreBackend, storeOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	svc := newService(cat, store, cfg)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start coordinator: %w", err)
	}
	defer svc.Stop()

	pool := newWorkerPool(svc, cfg)
	srv := newHTTPServer(ctx, svc, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		pool.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
		return pool.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

func storeOptions(cfg *config.Config) []repository.Option {
	return []repository.Option{
		repository.WithPath(cfg.StatePath),
		repository.WithRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		repository.WithRedisKey(cfg.RedisKey),
		repository.WithPostgresDSN(cfg.PostgresDSN),
	}
}

func newService(cat *catalog.Catalog, store repository.StateStore, cfg *config.Config) *service.Service {
	return service.New(cat, store,
		service.WithSessionTimeout(cfg.SessionTimeout()),
		service.WithSearchWindow(cfg.SearchWindow),
		service.WithMaxPreload(cfg.MaxPreload),
		service.WithUsernameMaxLength(cfg.UsernameMaxLength),
		service.WithDedupeSize(cfg.RequestDedupeSize),
		service.WithPersistTimeout(cfg.PersistTimeout()),
	)
}

// newWorkerPool builds the background workers: the session sweeper (unless
// disabled) and the metrics publisher.
func newWorkerPool(svc *service.Service, cfg *config.Config) *worker.Pool {
	workers := []worker.Worker{
		worker.NewTickerWorker(func(ctx context.Context) error {
			updateSystemMetrics()
			return svc.PublishMetrics(ctx)
		}, worker.WithName("metrics"), worker.WithInterval(metricsInterval)),
	}
	if interval := cfg.SweepInterval(); interval > 0 {
		workers = append(workers, worker.NewSweeper(svc, interval))
	}
	return worker.NewPool(workers...)
}

func newHTTPServer(ctx context.Context, svc *service.Service, cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithHolderCookie(cfg.HolderCookie),
		api.WithCookieSecure(cfg.CookieSecure),
		api.WithAllowedOrigins(cfg.AllowedOrigins()...),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	apiServer.Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
