package querylogrepo

import (
	"context"
	"sync"

	"github.com/yanqian/hydro-agent/internal/domain/querylog"
)

const defaultCapacity = 500

// MemoryRepository keeps the most recent entries in a bounded ring.
type MemoryRepository struct {
	mu       sync.RWMutex
	entries  []querylog.Entry
	capacity int
}

// NewMemoryRepository builds a repository retaining at most capacity entries.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryRepository{capacity: capacity}
}

// Insert implements querylog.Repository.
func (r *MemoryRepository) Insert(_ context.Context, entry querylog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = append([]querylog.Entry(nil), r.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]querylog.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]querylog.Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

var _ querylog.Repository = (*MemoryRepository)(nil)
