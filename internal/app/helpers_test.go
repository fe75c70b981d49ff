package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/domain/catalog"
	"github.com/okian/reviewdesk/internal/domain/state"
	"github.com/okian/reviewdesk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testCatalog(n int) *catalog.Catalog {
	rows := make([]map[string]string, n)
	for i := range rows {
		rows[i] = map[string]string{
			"company_name": fmt.Sprintf("Company %c", 'A'+i%26),
			"website":      fmt.Sprintf("https://c%d.test", i),
		}
	}
	return catalog.New([]string{"company_name", "website"}, rows, "test")
}

type failingStore struct {
	mu    sync.Mutex
	saves int
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Load(context.Context) (*state.Document, error) { return nil, errStoreDown }

func (f *failingStore) Save(context.Context, *state.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return errStoreDown
}

func (f *failingStore) Name() string { return "failing" }

func (f *failingStore) Close() error { return nil }

func newService(n int, clock *fakeClock, opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithClock(clock.Now)}, opts...)
	svc := service.New(testCatalog(n), nil, opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}
