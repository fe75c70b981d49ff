package repository

import (
	"context"
	"sync"

	"github.com/okian/reviewdesk/internal/domain/state"
)

// MemoryStore keeps a private copy of the last saved document. Nothing
// survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	doc   *state.Document
	saves int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string { return BackendMemory }

func (s *MemoryStore) Load(ctx context.Context) (*state.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, doc *state.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
