package domain

import "time"

// Event types emitted by the governance services.
const (
	EventSessionCreated    = "session_created"
	EventSessionResolved   = "session_resolved"
	EventSessionRevoked    = "session_revoked"
	EventNDARequested      = "nda_requested"
	EventNDASigned         = "nda_signed"
	EventNDADeclined       = "nda_declined"
	EventWorkflowCreated   = "workflow_created"
	EventWorkflowSubmitted = "workflow_submitted"
	EventWorkflowDecided   = "workflow_decided"
	EventAccessDenied      = "access_denied"
)

// Event is one governance event (session/workflow-scoped, optional actor).
// Events are observability output only; state transitions never depend on
// their delivery.
type Event struct {
	EventType  string
	SessionID  string
	WorkflowID string
	DocumentID string
	Actor      string
	Metadata   string // free-form, usually a short human-readable detail
	CreatedAt  time.Time
}
