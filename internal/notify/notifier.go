// Package notify defines the notification collaborator consumed by the
// approval and sharing code paths. Dispatch is fire-and-forget: a notification
// failure never rolls back or blocks the underlying state change.
package notify

import (
	"context"
	"log"
)

// Notification types sent to users.
const (
	TypeApprovalRequested = "approval_requested"
	TypeApprovalDecided   = "approval_decided"
	TypeSessionShared     = "session_shared"
)

// Notifier delivers a notification to a user. Implementations are external
// (email, in-app); no return value is consumed beyond an error for logging.
type Notifier interface {
	Send(ctx context.Context, userID, notifType string, payload map[string]string) error
}

// LogNotifier is a Notifier that writes to the process log. Default when no
// delivery backend is configured.
type LogNotifier struct{}

// Send logs the notification.
func (LogNotifier) Send(ctx context.Context, userID, notifType string, payload map[string]string) error {
	log.Printf("notify: %s -> %s %v", notifType, userID, payload)
	return nil
}
