// Package repository persists the shared review state document.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/reviewdesk/internal/domain/state"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// StateStore loads and saves the whole state document.
type StateStore interface {
	// Load returns the stored document, or nil when nothing was saved yet.
	Load(ctx context.Context) (*state.Document, error)
	// Save replaces the stored document.
	Save(ctx context.Context, doc *state.Document) error
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}

// Open builds the store selected by backend.
func Open(ctx context.Context, backend string, opts ...Option) (StateStore, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile:
		if s.path == "" {
			return nil, fmt.Errorf("%w: state path", ErrMissingSetting)
		}
		return NewFileStore(s.path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if s.redisAddr == "" {
			return nil, fmt.Errorf("%w: redis address", ErrMissingSetting)
		}
		return NewRedisStore(ctx, s.redisAddr, s.redisPassword, s.redisDB, s.redisKey)
	case BackendPostgres:
		if s.postgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres dsn", ErrMissingSetting)
		}
		return NewPostgresStore(ctx, s.postgresDSN, s.documentName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
