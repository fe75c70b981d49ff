// Package service provides the review coordinator: the single owner of the
// shared assignment state used by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/reviewdesk/internal/adapters/repository"
	"github.com/okian/reviewdesk/internal/domain/catalog"
	"github.com/okian/reviewdesk/internal/domain/cursor"
	"github.com/okian/reviewdesk/internal/domain/dedupe"
	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/internal/domain/ledger"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/internal/domain/session"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

// Service coordinates catalog, sessions, ledger, cursor and leaderboard.
//
// Every method that touches shared state takes mu for its whole duration, so
// a request observes either none or all of another request's changes.
type Service struct {
	mu sync.Mutex

	catalog  *catalog.Catalog
	store    repository.StateStore
	ledger   *ledger.Ledger
	sessions *session.Tracker
	cursor   *cursor.Cursor
	board    *leaderboard.Board
	liked    []model.CompletedReview
	disliked []model.CompletedReview
	deduper  dedupe.Deduper

	// Configuration
	sessionTimeout    time.Duration
	searchWindow      int
	maxPreload        int
	usernameMaxLength int
	dedupeSize        int
	persistTimeout    time.Duration
	clock             func() time.Time

	// State
	started     bool
	lastUpdated time.Time
	persistErr  error

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSessionTimeout sets how long a holder may stay idle before its items
// are released.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTimeout = d
		}
	}
}

// WithSearchWindow bounds the forward scan for a free item.
func WithSearchWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.searchWindow = n
		}
	}
}

// WithMaxPreload caps how many lookahead items a holder may hold.
func WithMaxPreload(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPreload = n
		}
	}
}

// WithUsernameMaxLength sets the username length limit in runes.
func WithUsernameMaxLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.usernameMaxLength = n
		}
	}
}

// WithDedupeSize sets how many verdict request ids are remembered.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithPersistTimeout bounds each state save.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a coordinator over cat. A nil store keeps state in memory.
func New(cat *catalog.Catalog, store repository.StateStore, opts ...Option) *Service {
	if cat == nil {
		cat = catalog.New(nil, nil, "")
	}
	if store == nil {
		store = repository.NewMemoryStore()
	}
	s := &Service{
		catalog:           cat,
		store:             store,
		ledger:            ledger.New(cat.Len()),
		sessions:          session.NewTracker(),
		cursor:            cursor.New(cat.Len()),
		board:             leaderboard.New(),
		sessionTimeout:    120 * time.Second,
		searchWindow:      100,
		maxPreload:        3,
		usernameMaxLength: 50,
		dedupeSize:        10000,
		persistTimeout:    5 * time.Second,
		clock:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("coordinator")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start restores the last saved state. A load failure is logged and the
// service starts empty.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting review coordinator...",
		logger.Int("items", s.catalog.Len()),
		logger.String("catalog", s.catalog.Source()),
		logger.String("store", s.store.Name()),
	)

	start := s.clock()
	doc, err := s.store.Load(ctx)
	metrics.RecordPersistLatency(s.store.Name(), "load", float64(s.clock().Sub(start).Milliseconds()))
	switch {
	case err != nil:
		metrics.RecordPersistFailure(s.store.Name(), "load")
		s.persistErr = fmt.Errorf("%w: load from %s: %w", ErrPersistence, s.store.Name(), err)
		s.logger.Error(ctx, "failed to load state, starting empty", logger.Error(s.persistErr))
	case doc != nil:
		s.restoreLocked(ctx, doc)
	}

	metrics.UpdateCatalogSize(s.catalog.Len())
	s.started = true
	s.logger.Info(ctx, "review coordinator started",
		logger.Int("assigned", s.ledger.AssignedCount()),
		logger.Int("completed", s.ledger.CompletedCount()),
		logger.Int("cursor", s.cursor.Value()),
		logger.Duration("sessionTimeout", s.sessionTimeout),
	)
	return nil
}

// Stop saves a final snapshot and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping review coordinator...")

	s.persistLocked(ctx)
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close state store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "review coordinator stopped")
}

// PersistError returns the last load or save failure wrapped with
// ErrPersistence, or nil once a save has succeeded since.
func (s *Service) PersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// ExpireSessions releases everything held by idle holders. It is called by
// the background sweeper; requests also expire sessions lazily.
func (s *Service) ExpireSessions(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.expireLocked(ctx, s.clock())
	if n > 0 {
		s.persistLocked(ctx)
	}
	return n
}

// PublishMetrics pushes the current progress gauges.
func (s *Service) PublishMetrics(context.Context) error {
	p := s.Progress()
	s.mu.Lock()
	users, cur := s.board.Len(), s.cursor.Value()
	s.mu.Unlock()
	metrics.UpdateProgress(p.Assigned, p.Liked, p.Disliked, p.ActiveUsers, users, cur)
	return nil
}

func (s *Service) now() time.Time { return s.clock() }

// expireLocked drops idle sessions and releases their items. Released
// positions below the cursor are handed to the cursor for reuse.
func (s *Service) expireLocked(ctx context.Context, now time.Time) int {
	expired := s.sessions.ExpireOlderThan(now, s.sessionTimeout)
	if len(expired) == 0 {
		return 0
	}
	released := 0
	for _, holder := range expired {
		positions := s.ledger.ReleaseHolder(holder)
		for _, pos := range positions {
			s.cursor.Reclaim(pos)
		}
		released += len(positions)
		s.logger.Debug(ctx, "session expired",
			logger.Holder(holder),
			logger.Int("released", len(positions)),
		)
	}
	s.lastUpdated = now
	metrics.RecordSessionsExpired(len(expired), released)
	return len(expired)
}
