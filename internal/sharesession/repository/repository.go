package repository

import (
	"context"

	"startup-dataroom/backend/internal/sharesession/domain"
)

// Repository defines persistence for share sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Revoke sets active = false. Idempotent; unknown ids are a no-op.
	Revoke(ctx context.Context, id string) error
	// IncrementAccessCount atomically adds one to the session's access count
	// and returns the new value. A lost increment is a correctness bug.
	IncrementAccessCount(ctx context.Context, id string) (int64, error)
}
