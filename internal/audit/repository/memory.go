package repository

import (
	"context"
	"sync"

	"startup-dataroom/backend/internal/audit/domain"
)

// MemoryRepository is an in-memory access log. A single writer lock serializes
// appends; reads copy the slice so they never observe a partial append.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry
}

// NewMemoryRepository returns an empty in-memory access log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores one entry at the tail of the log.
func (r *MemoryRepository) Append(ctx context.Context, e *domain.Entry) error {
	cp := *e
	r.mu.Lock()
	r.entries = append(r.entries, &cp)
	r.mu.Unlock()
	return nil
}

// List returns all entries newest-first.
func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Entry, len(r.entries))
	for i := range r.entries {
		cp := *r.entries[len(r.entries)-1-i]
		out[i] = &cp
	}
	return out, nil
}

// Clear drops all entries.
func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
	return nil
}
