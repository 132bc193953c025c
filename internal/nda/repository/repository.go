package repository

import (
	"context"
	"time"

	"startup-dataroom/backend/internal/nda/domain"
)

// Repository defines persistence for NDA requests.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// GetBySessionAndSigner returns the request for the (session, signer email)
	// pair, or nil if none exists.
	GetBySessionAndSigner(ctx context.Context, sessionID, signerEmail string) (*domain.Request, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Request, error)
	Create(ctx context.Context, r *domain.Request) error
	// UpdateStatus sets the request's status and, when signedAt is non-nil, its
	// signing timestamp.
	UpdateStatus(ctx context.Context, id string, status domain.Status, signedAt *time.Time) error
}
