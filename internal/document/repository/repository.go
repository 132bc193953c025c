package repository

import (
	"context"

	"startup-dataroom/backend/internal/document/domain"
)

// Repository defines persistence for documents.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Document, error)
	Create(ctx context.Context, d *domain.Document) error
	UpdateVisibility(ctx context.Context, id string, v domain.Visibility) error
}
