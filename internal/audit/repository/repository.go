package repository

import (
	"context"

	"startup-dataroom/backend/internal/audit/domain"
)

// Repository defines persistence for the append-only access log.
type Repository interface {
	// Append stores one entry at the tail of the log.
	Append(ctx context.Context, e *domain.Entry) error
	// List returns all entries newest-first (reverse insertion order).
	List(ctx context.Context) ([]*domain.Entry, error)
	// Clear drops all entries. Irreversible.
	Clear(ctx context.Context) error
}
