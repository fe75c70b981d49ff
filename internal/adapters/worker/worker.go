// Package worker runs periodic background jobs such as the session sweeper.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

const (
	defaultInterval     = 30 * time.Second
	poolShutdownTimeout = 10 * time.Second
)

// Job is one tick of work.
type Job func(ctx context.Context) error

// Sweeper expires idle sessions and releases what they held.
type Sweeper interface {
	ExpireSessions(ctx context.Context) int
}

// Worker runs a Job on a fixed interval.
type Worker interface {
	// Run starts the loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for the current tick to finish.
	Shutdown(ctx context.Context) error
}

// TickerWorker implements Worker with a time.Ticker.
type TickerWorker struct {
	job      Job
	name     string
	interval time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewTickerWorker creates a worker for job.
func NewTickerWorker(job Job, opts ...Option) *TickerWorker {
	w := &TickerWorker{
		job:      job,
		name:     "worker",
		interval: defaultInterval,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// NewSweeper wraps s as a worker that expires sessions every interval.
func NewSweeper(s Sweeper, interval time.Duration, opts ...Option) *TickerWorker {
	job := func(ctx context.Context) error {
		s.ExpireSessions(ctx)
		return nil
	}
	opts = append([]Option{WithName("session-sweeper"), WithInterval(interval)}, opts...)
	return NewTickerWorker(job, opts...)
}

// Name returns the worker name.
func (w *TickerWorker) Name() string { return w.name }

// Interval returns the tick interval.
func (w *TickerWorker) Interval() time.Duration { return w.interval }

// Run starts the worker loop.
func (w *TickerWorker) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Debug(ctx, "worker started", logger.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-ticker.C:
			if err := w.job(ctx); err != nil {
				metrics.RecordErrorByComponent("worker", w.name)
				w.logger.Error(ctx, "job failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *TickerWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool runs several workers and stops them together.
type Pool struct {
	workers []Worker
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool groups workers.
func NewPool(workers ...Worker) *Pool {
	return &Pool{
		workers: workers,
		logger:  logger.Get().Named("worker-pool"),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run starts every worker and blocks until all of them return.
func (p *Pool) Run(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.wg.Wait()
}

// Shutdown stops every worker, waiting at most poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
