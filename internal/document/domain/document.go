package domain

import (
	"errors"
	"time"
)

// Visibility is a document's minimum required viewer tier.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityInvestors Visibility = "investors"
	VisibilityTeam      Visibility = "team"
	VisibilityPrivate   Visibility = "private"
)

// ValidVisibility reports whether v is one of the known visibility values.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityInvestors, VisibilityTeam, VisibilityPrivate:
		return true
	}
	return false
}

// Document is a data-room document record. Documents are fed in by the
// aggregating layer; the governance engine reads ids and visibility and only
// ever mutates visibility.
type Document struct {
	ID             string
	Name           string
	Category       string
	Visibility     Visibility
	Representative bool // representative document of its category
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the document for persistence.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("document id is required")
	}
	if d.Name == "" {
		return errors.New("document name is required")
	}
	if d.Visibility == "" {
		d.Visibility = VisibilityPrivate
	}
	return nil
}
