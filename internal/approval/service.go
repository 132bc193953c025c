package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/approval/domain"
	"startup-dataroom/backend/internal/approval/repository"
	"startup-dataroom/backend/internal/notify"
	"startup-dataroom/backend/internal/platform/keylock"
	"startup-dataroom/backend/internal/telemetry"
	telemetrydomain "startup-dataroom/backend/internal/telemetry/domain"
)

// Service runs multi-stage approval workflows over scenarios. All mutations on
// the same workflow id serialize through a per-id lock so concurrent decisions
// cannot double-fire a stage transition.
type Service struct {
	repo     repository.Repository
	notifier notify.Notifier
	emitter  telemetry.EventEmitter
	locks    *keylock.KeyLock
	nowF     func() time.Time
}

// NewService returns an approval service. notifier and emitter may be nil.
func NewService(repo repository.Repository, notifier notify.Notifier, emitter telemetry.EventEmitter) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		emitter:  emitter,
		locks:    keylock.New(),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the service clock. Test hook.
func (s *Service) SetNow(nowF func() time.Time) { s.nowF = nowF }

// Create builds a draft workflow for the scenario from a named template. The
// same approver set backs every stage; for the complex template the last stage
// requires all of them.
func (s *Service) Create(ctx context.Context, scenarioID, submitterID string, template domain.Template, approvers []string) (*domain.Workflow, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("%w: scenario id is required", apperr.ErrInvalidInput)
	}
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: approver set is empty", apperr.ErrInvalidInput)
	}
	now := s.nowF()
	stages := domain.StagesForTemplate(template, approvers, now)
	if stages == nil {
		return nil, fmt.Errorf("%w: unknown template %q", apperr.ErrInvalidInput, template)
	}

	w := &domain.Workflow{
		ID:                uuid.New().String(),
		ScenarioID:        scenarioID,
		SubmitterID:       submitterID,
		Status:            domain.WorkflowDraft,
		CurrentStageIndex: 0,
		Stages:            stages,
		CreatedAt:         now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType:  telemetrydomain.EventWorkflowCreated,
		WorkflowID: w.ID,
		Actor:      submitterID,
		Metadata:   string(template),
		CreatedAt:  now,
	})
	return w, nil
}

// Submit moves a draft workflow to pending, activating stage 0 and notifying
// its approvers. Stage due dates are re-anchored to the submission time.
func (s *Service) Submit(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	s.locks.Lock(workflowID)
	defer s.locks.Unlock(workflowID)

	w, err := s.mustGet(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w.Status.Terminal() {
		return nil, fmt.Errorf("%w: workflow %s is %s", apperr.ErrWorkflowClosed, workflowID, w.Status)
	}
	if w.Status != domain.WorkflowDraft {
		return nil, fmt.Errorf("%w: workflow %s already submitted", apperr.ErrInvalidInput, workflowID)
	}

	now := s.nowF()
	w.Status = domain.WorkflowPending
	w.CurrentStageIndex = 0
	w.SubmittedAt = &now
	for i := range w.Stages {
		due := now.Add(time.Duration(i+1) * 3 * 24 * time.Hour)
		w.Stages[i].DueDate = &due
	}
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}

	s.notifyApprovers(ctx, w, &w.Stages[0])
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType:  telemetrydomain.EventWorkflowSubmitted,
		WorkflowID: w.ID,
		Actor:      w.SubmitterID,
		CreatedAt:  now,
	})
	return w, nil
}

// Decide applies one approver's decision to a stage of a pending workflow.
// Approvals on a requiresAll stage accumulate until every approver has
// approved; completing the last stage approves the workflow. A reject or
// revision request closes the workflow immediately, leaving later stages
// untouched. Every decision is appended to the history and the submitter is
// notified.
func (s *Service) Decide(ctx context.Context, workflowID, stageID, approverID string, action domain.Action, comment string) (*domain.Workflow, error) {
	if !domain.ValidAction(action) {
		return nil, fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidInput, action)
	}

	s.locks.Lock(workflowID)
	defer s.locks.Unlock(workflowID)

	w, err := s.mustGet(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if w.Status.Terminal() {
		return nil, fmt.Errorf("%w: workflow %s is %s", apperr.ErrWorkflowClosed, workflowID, w.Status)
	}
	if w.Status != domain.WorkflowPending {
		return nil, fmt.Errorf("%w: workflow %s not submitted", apperr.ErrInvalidInput, workflowID)
	}
	stage := w.CurrentStage()
	if stage == nil || stage.ID != stageID {
		return nil, fmt.Errorf("%w: stage %s is not the active stage", apperr.ErrInvalidInput, stageID)
	}
	if !stage.HasApprover(approverID) {
		return nil, fmt.Errorf("%w: %s is not an approver of stage %s", apperr.ErrUnauthorized, approverID, stageID)
	}

	now := s.nowF()
	switch action {
	case domain.ActionApprove:
		if stage.HasApproval(approverID) {
			// Repeat approval by the same approver changes nothing.
			return w, nil
		}
		stage.Approvals = append(stage.Approvals, approverID)
		w.History = append(w.History, domain.Decision{
			StageID: stageID, ApproverID: approverID, Action: action, Comment: comment, Timestamp: now,
		})
		if !stage.RequiresAll || len(stage.Approvals) == len(stage.Approvers) {
			stage.Status = domain.StageApproved
			if w.CurrentStageIndex == len(w.Stages)-1 {
				w.Status = domain.WorkflowApproved
			} else {
				w.CurrentStageIndex++
			}
		}
	case domain.ActionReject:
		w.History = append(w.History, domain.Decision{
			StageID: stageID, ApproverID: approverID, Action: action, Comment: comment, Timestamp: now,
		})
		w.Status = domain.WorkflowRejected
	case domain.ActionRequestRevision:
		w.History = append(w.History, domain.Decision{
			StageID: stageID, ApproverID: approverID, Action: action, Comment: comment, Timestamp: now,
		})
		w.Status = domain.WorkflowRevisionRequested
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}

	notify.SendAsync(s.notifier, ctx, w.SubmitterID, notify.TypeApprovalDecided, map[string]string{
		"workflowId": w.ID,
		"stageId":    stageID,
		"action":     string(action),
		"status":     string(w.Status),
	})
	if w.Status == domain.WorkflowPending && w.Stages[w.CurrentStageIndex].ID != stageID {
		s.notifyApprovers(ctx, w, &w.Stages[w.CurrentStageIndex])
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType:  telemetrydomain.EventWorkflowDecided,
		WorkflowID: w.ID,
		Actor:      approverID,
		Metadata:   string(action),
		CreatedAt:  now,
	})
	return w, nil
}

// Get returns the workflow for id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	return s.mustGet(ctx, id)
}

// IsScenarioApproved reports whether the scenario's latest workflow is
// approved. Scenarios with no workflow at all are not approved.
func (s *Service) IsScenarioApproved(ctx context.Context, scenarioID string) (bool, error) {
	w, err := s.repo.LatestByScenario(ctx, scenarioID)
	if err != nil {
		return false, err
	}
	return w != nil && w.Status == domain.WorkflowApproved, nil
}

func (s *Service) mustGet(ctx context.Context, id string) (*domain.Workflow, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: workflow %s", apperr.ErrNotFound, id)
	}
	return w, nil
}

func (s *Service) notifyApprovers(ctx context.Context, w *domain.Workflow, stage *domain.Stage) {
	for _, approver := range stage.Approvers {
		notify.SendAsync(s.notifier, ctx, approver, notify.TypeApprovalRequested, map[string]string{
			"workflowId": w.ID,
			"stageId":    stage.ID,
			"scenarioId": w.ScenarioID,
		})
	}
}
