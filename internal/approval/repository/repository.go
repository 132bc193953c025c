package repository

import (
	"context"

	"startup-dataroom/backend/internal/approval/domain"
)

// Repository defines persistence for approval workflows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Workflow, error)
	// LatestByScenario returns the most recently created workflow for the
	// scenario, or nil when none exists.
	LatestByScenario(ctx context.Context, scenarioID string) (*domain.Workflow, error)
	Create(ctx context.Context, w *domain.Workflow) error
	// Update persists the workflow's mutable state (status, stage index,
	// stages, history, submission time).
	Update(ctx context.Context, w *domain.Workflow) error
}
