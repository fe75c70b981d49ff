package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/adapters/worker"
	logging "github.com/okian/reviewdesk/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) ExpireSessions(context.Context) int {
	s.calls.Add(1)
	return 0
}

func TestTickerWorker(t *testing.T) {
	convey.Convey("Given a ticker worker", t, func() {
		_ = logging.Init()

		convey.Convey("When created with default options", func() {
			w := worker.NewTickerWorker(func(context.Context) error { return nil })

			convey.Convey("Then defaults apply", func() {
				convey.So(w.Name(), convey.ShouldEqual, "worker")
				convey.So(w.Interval(), convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When created with a non-positive interval", func() {
			w := worker.NewTickerWorker(func(context.Context) error { return nil },
				worker.WithName("x"), worker.WithInterval(-time.Second), worker.WithLogger(logging.Named("x")))

			convey.Convey("Then the interval is kept at the default", func() {
				convey.So(w.Name(), convey.ShouldEqual, "x")
				convey.So(w.Interval(), convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When running a failing job", func() {
			var calls atomic.Int32
			w := worker.NewTickerWorker(func(context.Context) error {
				calls.Add(1)
				return errors.New("boom")
			}, worker.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then it keeps ticking and shuts down cleanly", func() {
				convey.So(calls.Load(), convey.ShouldBeGreaterThan, 1)
				shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
				defer done()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewTickerWorker(func(context.Context) error { return nil }, worker.WithInterval(time.Hour))
			ctx, cancel := context.WithCancel(context.Background())
			stopped := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(stopped)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-stopped:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When shutdown is never acknowledged", func() {
			w := worker.NewTickerWorker(func(context.Context) error { return nil })
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			convey.Convey("Then Shutdown times out", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSweeperPool(t *testing.T) {
	convey.Convey("Given a pool with a sweeper", t, func() {
		_ = logging.Init()
		s := &countingSweeper{}
		sw := worker.NewSweeper(s, 5*time.Millisecond)
		pool := worker.NewPool(sw)

		convey.So(sw.Name(), convey.ShouldEqual, "session-sweeper")
		convey.So(pool.Size(), convey.ShouldEqual, 1)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		finished := make(chan struct{})
		go func() {
			pool.Run(ctx)
			close(finished)
		}()
		time.Sleep(50 * time.Millisecond)

		convey.Convey("Then the sweeper is called and the pool stops", func() {
			convey.So(s.calls.Load(), convey.ShouldBeGreaterThan, 0)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			select {
			case <-finished:
			case <-time.After(time.Second):
				t.Fatal("pool did not stop")
			}
		})
	})
}
