package stationstore

import (
	"context"
	"sync"

	"github.com/yanqian/hydro-agent/internal/domain/station"
)

// MemoryStore keeps the last directory generation in process memory for tests/dev.
type MemoryStore struct {
	mu  sync.RWMutex
	gen *station.Generation
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements station.Store.
func (s *MemoryStore) Load(_ context.Context) (station.Generation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == nil {
		return station.Generation{}, false, nil
	}
	return clone(*s.gen), true, nil
}

// Save implements station.Store.
func (s *MemoryStore) Save(_ context.Context, gen station.Generation) error {
	copied := clone(gen)
	s.mu.Lock()
	s.gen = &copied
	s.mu.Unlock()
	return nil
}

func clone(gen station.Generation) station.Generation {
	out := station.Generation{
		Entries:     make(map[station.Kind][]station.Record, len(gen.Entries)),
		RefreshedAt: gen.RefreshedAt,
	}
	for kind, records := range gen.Entries {
		out.Entries[kind] = append([]station.Record(nil), records...)
	}
	return out
}

var _ station.Store = (*MemoryStore)(nil)
