package genstore

import (
	"context"
	"sync"
)

// LocalGenStore keeps generations in-process.
// Generations reset on restart, so pair it only with providers that do too.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore() *LocalGenStore {
	return &LocalGenStore{gens: make(map[string]uint64)}
}

func (s *LocalGenStore) Snapshot(_ context.Context, ns string) (uint64, error) {
	s.mu.RLock()
	g := s.gens[ns]
	s.mu.RUnlock()
	return g, nil
}

func (s *LocalGenStore) Bump(_ context.Context, ns string) (uint64, error) {
	s.mu.Lock()
	s.gens[ns]++
	g := s.gens[ns]
	s.mu.Unlock()
	return g, nil
}

func (s *LocalGenStore) Close(context.Context) error { return nil }
