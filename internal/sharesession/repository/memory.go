package repository

import (
	"context"
	"sync"

	"startup-dataroom/backend/internal/sharesession/domain"
)

// MemoryRepository is an in-memory share session store. The store mutex also
// serializes access count increments, making them linearizable per session.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Session)}
}

// GetByID returns the session for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.DocumentIDs = append([]string(nil), s.DocumentIDs...)
	return &cp, nil
}

// Create stores the session. The session must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.DocumentIDs = append([]string(nil), s.DocumentIDs...)
	r.m[s.ID] = &cp
	return nil
}

// Revoke sets active = false. Idempotent.
func (r *MemoryRepository) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.Active = false
	}
	return nil
}

// IncrementAccessCount atomically adds one to the session's access count.
func (r *MemoryRepository) IncrementAccessCount(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		return 0, nil
	}
	s.AccessCount++
	return s.AccessCount, nil
}
