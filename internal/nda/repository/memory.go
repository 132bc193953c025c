package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"startup-dataroom/backend/internal/nda/domain"
)

// MemoryRepository is an in-memory NDA request store.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Request
}

// NewMemoryRepository returns an empty in-memory NDA request repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Request)}
}

// GetByID returns the request for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

// GetBySessionAndSigner returns the request for the (session, signer email)
// pair, or nil if none exists. Email comparison is case-insensitive.
func (r *MemoryRepository) GetBySessionAndSigner(ctx context.Context, sessionID, signerEmail string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.m {
		if req.SessionID == sessionID && strings.EqualFold(req.Signer.Email, signerEmail) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

// ListBySession returns all requests attached to the session.
func (r *MemoryRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Request
	for _, req := range r.m {
		if req.SessionID == sessionID {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Create stores the request. The request must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.m[req.ID] = &cp
	return nil
}

// UpdateStatus sets the request's status and signing timestamp. Unknown ids
// are a no-op.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, signedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.m[id]
	if !ok {
		return nil
	}
	req.Status = status
	if signedAt != nil {
		t := *signedAt
		req.SignedAt = &t
	}
	return nil
}
