package domain

import "time"

// Action is the kind of access being audited.
type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionUpload   Action = "upload"
	ActionShare    Action = "share"
	ActionDelete   Action = "delete"
)

// AnonymousActor is recorded when the actor identity is unknown (e.g. an
// unauthenticated visitor of a share link).
const AnonymousActor = "anonymous"

// Entry is one immutable access event. Entries are append-only; nothing
// mutates or deletes them except an explicit bulk clear.
type Entry struct {
	Timestamp       time.Time
	Action          Action
	DocumentID      string
	SessionID       string // empty when the event is not session-scoped
	Actor           string // possibly AnonymousActor
	Success         bool
	DurationSeconds *int    // nil when unknown
	DeviceType      *string // nil when unknown
}

// ValidAction reports whether a is one of the known audit actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionView, ActionDownload, ActionUpload, ActionShare, ActionDelete:
		return true
	}
	return false
}
