package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/audit"
	auditdomain "startup-dataroom/backend/internal/audit/domain"
	documentdomain "startup-dataroom/backend/internal/document/domain"
	sessiondomain "startup-dataroom/backend/internal/sharesession/domain"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
	"startup-dataroom/backend/internal/telemetry"
	telemetrydomain "startup-dataroom/backend/internal/telemetry/domain"
	"startup-dataroom/backend/internal/visibility"
	visibilityengine "startup-dataroom/backend/internal/visibility/engine"
)

// DocumentRepo is the minimal document repository needed by the session service.
type DocumentRepo interface {
	GetByID(ctx context.Context, id string) (*documentdomain.Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]*documentdomain.Document, error)
}

// ApprovalGate reports whether a scenario has a fully approved workflow.
// Implemented by the approval service; used to gate sharing of gated bundles.
type ApprovalGate interface {
	IsScenarioApproved(ctx context.Context, scenarioID string) (bool, error)
}

// CreateParams are the inputs to Create.
type CreateParams struct {
	Name        string
	DocumentIDs []string
	ExpiresAt   *time.Time
	// RequireNDA gates document access on this session behind a signed NDA
	// per visitor identity.
	RequireNDA bool
	// ScenarioID, when set, requires the scenario's approval workflow to be
	// approved before the session may be created.
	ScenarioID string
}

// Visitor identifies the party resolving a share link, for the audit trail.
// Anonymous visitors leave Actor empty.
type Visitor struct {
	Actor      string
	DeviceType string
}

// Service creates, resolves, and revokes share sessions.
type Service struct {
	repo      sessionrepo.Repository
	docRepo   DocumentRepo
	evaluator visibilityengine.Evaluator
	auditor   audit.Recorder
	gate      ApprovalGate
	emitter   telemetry.EventEmitter
	baseURL   string
	nowF      func() time.Time
}

// NewService returns a session service. gate and emitter may be nil (no
// approval gating, no telemetry).
func NewService(
	repo sessionrepo.Repository,
	docRepo DocumentRepo,
	evaluator visibilityengine.Evaluator,
	auditor audit.Recorder,
	gate ApprovalGate,
	emitter telemetry.EventEmitter,
	baseURL string,
) *Service {
	return &Service{
		repo:      repo,
		docRepo:   docRepo,
		evaluator: evaluator,
		auditor:   auditor,
		gate:      gate,
		emitter:   emitter,
		baseURL:   baseURL,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the service clock. Test hook.
func (s *Service) SetNow(nowF func() time.Time) { s.nowF = nowF }

// Create builds a new share session over the given documents and returns it
// with its link. Fails with ErrInvalidInput when the name is empty, the
// document set is empty, or any document id is unknown. When a scenario id is
// given, the scenario must have an approved workflow or ErrAccessDenied is
// returned. A share audit entry is recorded on success.
func (s *Service) Create(ctx context.Context, p CreateParams) (*sessiondomain.Session, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if len(p.DocumentIDs) == 0 {
		return nil, fmt.Errorf("%w: document set is empty", apperr.ErrInvalidInput)
	}
	for _, id := range p.DocumentIDs {
		doc, err := s.docRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: unknown document %s", apperr.ErrInvalidInput, id)
		}
	}
	if p.ScenarioID != "" && s.gate != nil {
		approved, err := s.gate.IsScenarioApproved(ctx, p.ScenarioID)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, fmt.Errorf("%w: scenario %s is not approved for sharing", apperr.ErrAccessDenied, p.ScenarioID)
		}
	}

	now := s.nowF()
	id := uuid.New().String() // 122 random bits, collision probability negligible
	session := &sessiondomain.Session{
		ID:          id,
		Name:        p.Name,
		DocumentIDs: p.DocumentIDs,
		Link:        s.baseURL + "/share/" + id,
		Active:      true,
		NDARequired: p.RequireNDA,
		ExpiresAt:   p.ExpiresAt,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, &auditdomain.Entry{
			Timestamp: now,
			Action:    auditdomain.ActionShare,
			SessionID: session.ID,
			Success:   true,
		})
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventSessionCreated,
		SessionID: session.ID,
		Metadata:  fmt.Sprintf("%d documents", len(session.DocumentIDs)),
		CreatedAt: now,
	})
	return session, nil
}

// Resolve returns the session for id and counts the access. Expiry is checked
// lazily at read time; expired and revoked sessions fail without touching the
// access count, and the failed attempt is still audited with success=false.
func (s *Service) Resolve(ctx context.Context, id string, v Visitor) (*sessiondomain.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	if session == nil {
		s.auditAccess(ctx, now, id, v, false)
		return nil, fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
	}
	if session.IsExpired(now) {
		// Expired wins over revoked: the link is dead either way, but expiry
		// is the condition the sharer can see on the session itself.
		s.auditAccess(ctx, now, id, v, false)
		return nil, fmt.Errorf("%w: session %s", apperr.ErrExpired, id)
	}
	if !session.Active {
		s.auditAccess(ctx, now, id, v, false)
		return nil, fmt.Errorf("%w: session %s", apperr.ErrRevoked, id)
	}

	count, err := s.repo.IncrementAccessCount(ctx, id)
	if err != nil {
		return nil, err
	}
	session.AccessCount = count

	s.auditAccess(ctx, now, id, v, true)
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventSessionResolved,
		SessionID: id,
		Actor:     v.Actor,
		CreatedAt: now,
	})
	return session, nil
}

// Revoke deactivates the session. Idempotent; revoking an already revoked or
// unknown session is a no-op.
func (s *Service) Revoke(ctx context.Context, id string) error {
	if err := s.repo.Revoke(ctx, id); err != nil {
		return err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventSessionRevoked,
		SessionID: id,
		CreatedAt: s.nowF(),
	})
	return nil
}

// Get returns the session for id without counting an access. The session must
// be resolvable (not expired, not revoked).
func (s *Service) Get(ctx context.Context, id string) (*sessiondomain.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
	}
	if session.IsExpired(s.nowF()) {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrExpired, id)
	}
	if !session.Active {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrRevoked, id)
	}
	return session, nil
}

// Documents returns the session's documents visible to the given tier. The
// session must be resolvable; this read does not count as an access.
func (s *Service) Documents(ctx context.Context, id string, tier visibility.Tier) ([]*documentdomain.Document, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	docs, err := s.docRepo.ListByIDs(ctx, session.DocumentIDs)
	if err != nil {
		return nil, err
	}
	out := make([]*documentdomain.Document, 0, len(docs))
	for _, doc := range docs {
		visible, err := s.evaluator.IsVisible(ctx, doc, tier)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Service) auditAccess(ctx context.Context, now time.Time, sessionID string, v Visitor, success bool) {
	if s.auditor == nil {
		return
	}
	entry := &auditdomain.Entry{
		Timestamp: now,
		Action:    auditdomain.ActionView,
		SessionID: sessionID,
		Actor:     v.Actor,
		Success:   success,
	}
	if v.DeviceType != "" {
		dt := v.DeviceType
		entry.DeviceType = &dt
	}
	s.auditor.Record(ctx, entry)
}
