// Package apperr defines the error taxonomy shared by the governance services.
// Services wrap these sentinels with context; handlers map them to HTTP status codes.
package apperr

import "errors"

var (
	// ErrInvalidInput is returned for malformed or empty arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for an unknown session, workflow, or document id.
	ErrNotFound = errors.New("not found")
	// ErrExpired is returned when a time-boxed entity is past its deadline.
	ErrExpired = errors.New("expired")
	// ErrRevoked is returned for an explicitly deactivated share session.
	ErrRevoked = errors.New("revoked")
	// ErrUnauthorized is returned when the actor is not an approver of the stage
	// or not the caller a route requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWorkflowClosed is returned for mutations on a terminal workflow.
	ErrWorkflowClosed = errors.New("workflow closed")
	// ErrAccessDenied is returned when the NDA gate or visibility-tier gate fails.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidEntry is returned by the audit log for malformed entries.
	ErrInvalidEntry = errors.New("invalid audit entry")
)
