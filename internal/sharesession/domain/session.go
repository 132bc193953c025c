package domain

import "time"

// Session is a time-boxed, link-addressable bundle of documents. Sessions are
// never deleted, only deactivated, so the audit trail stays intact.
type Session struct {
	ID          string // opaque token, also the link path segment
	Name        string
	DocumentIDs []string
	Link        string
	Active      bool
	// NDARequired gates document access behind a signed NDA per visitor.
	NDARequired bool
	AccessCount int64
	ExpiresAt   *time.Time // nil when unbounded
	CreatedAt   time.Time
}

// IsExpired reports whether the session's expiry has passed at now.
// Unbounded sessions never expire.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
