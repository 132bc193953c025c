package repository

import (
	"context"
	"sync"
	"time"

	"startup-dataroom/backend/internal/document/domain"
)

// MemoryRepository is an in-memory document repository, used when no database
// is configured and in tests.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Document
}

// NewMemoryRepository returns an empty in-memory document repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Document)}
}

// GetByID returns the document for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

// ListByIDs returns the documents for the given ids, skipping unknown ids.
func (r *MemoryRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.m[id]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Create stores the document. The document must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, d *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.m[d.ID] = &cp
	return nil
}

// UpdateVisibility sets the document's visibility. Unknown ids are a no-op.
func (r *MemoryRepository) UpdateVisibility(ctx context.Context, id string, v domain.Visibility) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.m[id]; ok {
		d.Visibility = v
		d.UpdatedAt = time.Now().UTC()
	}
	return nil
}
