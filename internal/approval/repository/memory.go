package repository

import (
	"context"
	"sync"

	"startup-dataroom/backend/internal/approval/domain"
)

// MemoryRepository is an in-memory approval workflow store.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Workflow
}

// NewMemoryRepository returns an empty in-memory workflow repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Workflow)}
}

// GetByID returns the workflow for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	return copyWorkflow(w), nil
}

// LatestByScenario returns the most recently created workflow for the
// scenario, or nil when none exists.
func (r *MemoryRepository) LatestByScenario(ctx context.Context, scenarioID string) (*domain.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.Workflow
	for _, w := range r.m {
		if w.ScenarioID != scenarioID {
			continue
		}
		if latest == nil || w.CreatedAt.After(latest.CreatedAt) {
			latest = w
		}
	}
	return copyWorkflow(latest), nil
}

// Create stores the workflow. The workflow must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, w *domain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[w.ID] = copyWorkflow(w)
	return nil
}

// Update replaces the stored workflow state. Unknown ids are a no-op.
func (r *MemoryRepository) Update(ctx context.Context, w *domain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[w.ID]; !ok {
		return nil
	}
	r.m[w.ID] = copyWorkflow(w)
	return nil
}

func copyWorkflow(w *domain.Workflow) *domain.Workflow {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Stages = make([]domain.Stage, len(w.Stages))
	for i, st := range w.Stages {
		cp.Stages[i] = st
		cp.Stages[i].Approvers = append([]string(nil), st.Approvers...)
		cp.Stages[i].Approvals = append([]string(nil), st.Approvals...)
	}
	cp.History = append([]domain.Decision(nil), w.History...)
	return &cp
}
