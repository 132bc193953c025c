package domain

import "time"

// Status is the lifecycle state of an NDA request. Signed, expired, and
// declined are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSigned   Status = "signed"
	StatusExpired  Status = "expired"
	StatusDeclined Status = "declined"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusSigned || s == StatusExpired || s == StatusDeclined
}

// DeadlinePolicy controls how a request's signing deadline is derived.
type DeadlinePolicy string

const (
	Deadline7Days  DeadlinePolicy = "7days"
	Deadline30Days DeadlinePolicy = "30days"
	DeadlineCustom DeadlinePolicy = "custom"
	DeadlineNone   DeadlinePolicy = "none"
)

// Signer identifies the counterparty asked to accept the terms. Email is the
// identity key: one request exists per (session, signer email) pair.
type Signer struct {
	Name    string
	Email   string
	Company string
}

// Request is one NDA gate instance for a share session visitor.
type Request struct {
	ID          string
	SessionID   string
	Signer      Signer
	Status      Status
	RequestedAt time.Time
	SignedAt    *time.Time
	Deadline    *time.Time
}

// DeadlinePassed reports whether the request is pending past its deadline.
// Requests without a deadline never expire.
func (r *Request) DeadlinePassed(now time.Time) bool {
	return r.Status == StatusPending && r.Deadline != nil && now.After(*r.Deadline)
}
