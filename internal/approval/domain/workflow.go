package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus is the lifecycle state of an approval workflow. Approved,
// rejected, and revision_requested are terminal.
type WorkflowStatus string

const (
	WorkflowDraft             WorkflowStatus = "draft"
	WorkflowPending           WorkflowStatus = "pending"
	WorkflowApproved          WorkflowStatus = "approved"
	WorkflowRejected          WorkflowStatus = "rejected"
	WorkflowRevisionRequested WorkflowStatus = "revision_requested"
)

// Terminal reports whether no further transition may leave s.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowApproved || s == WorkflowRejected || s == WorkflowRevisionRequested
}

// StageStatus is the state of one workflow stage.
type StageStatus string

const (
	StagePending  StageStatus = "pending"
	StageApproved StageStatus = "approved"
)

// Action is one approver's decision on a stage.
type Action string

const (
	ActionApprove         Action = "approved"
	ActionReject          Action = "rejected"
	ActionRequestRevision Action = "revision_requested"
)

// ValidAction reports whether a is a known decision action.
func ValidAction(a Action) bool {
	return a == ActionApprove || a == ActionReject || a == ActionRequestRevision
}

// Template names a predefined stage layout.
type Template string

const (
	TemplateSimple   Template = "simple"   // 1 stage
	TemplateStandard Template = "standard" // 2 stages
	TemplateComplex  Template = "complex"  // 3 stages, last requires all approvers
)

// Stage is one sequential sign-off step owned by a set of approvers.
type Stage struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Approvers []string `json:"approvers"`
	// RequiresAll makes the stage complete only once every approver has
	// approved; otherwise a single approval completes it.
	RequiresAll bool        `json:"requiresAll"`
	Status      StageStatus `json:"status"`
	// Approvals records which approvers have approved so far. Partial
	// approvals on a RequiresAll stage are retained here without advancing.
	Approvals []string   `json:"approvals,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

// HasApprover reports whether userID is one of the stage's approvers.
func (st *Stage) HasApprover(userID string) bool {
	for _, a := range st.Approvers {
		if a == userID {
			return true
		}
	}
	return false
}

// HasApproval reports whether userID has already approved this stage.
func (st *Stage) HasApproval(userID string) bool {
	for _, a := range st.Approvals {
		if a == userID {
			return true
		}
	}
	return false
}

// Decision is one history record of an approver acting on a stage.
type Decision struct {
	StageID    string    `json:"stageId"`
	ApproverID string    `json:"approverId"`
	Action     Action    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Workflow is a multi-stage sign-off over a scenario (a document bundle
// proposed for sharing). The workflow owns its stages and history exclusively.
type Workflow struct {
	ID                string
	ScenarioID        string
	SubmitterID       string
	Status            WorkflowStatus
	CurrentStageIndex int
	Stages            []Stage
	History           []Decision
	CreatedAt         time.Time
	SubmittedAt       *time.Time
}

// CurrentStage returns the active stage, or nil when the workflow is not
// pending.
func (w *Workflow) CurrentStage() *Stage {
	if w.Status != WorkflowPending {
		return nil
	}
	if w.CurrentStageIndex < 0 || w.CurrentStageIndex >= len(w.Stages) {
		return nil
	}
	return &w.Stages[w.CurrentStageIndex]
}

// StagesForTemplate builds the stage layout for a template, with due dates
// spaced out relative to now. Returns nil for an unknown template.
func StagesForTemplate(t Template, approvers []string, now time.Time) []Stage {
	names := stageNames(t)
	if names == nil {
		return nil
	}
	stages := make([]Stage, len(names))
	for i, name := range names {
		due := now.Add(time.Duration(i+1) * 3 * 24 * time.Hour)
		stages[i] = Stage{
			ID:        uuid.New().String(),
			Name:      name,
			Approvers: append([]string(nil), approvers...),
			Status:    StagePending,
			DueDate:   &due,
		}
	}
	if t == TemplateComplex {
		stages[len(stages)-1].RequiresAll = true
	}
	return stages
}

func stageNames(t Template) []string {
	switch t {
	case TemplateSimple:
		return []string{"review"}
	case TemplateStandard:
		return []string{"review", "sign-off"}
	case TemplateComplex:
		return []string{"review", "legal", "final sign-off"}
	}
	return nil
}
