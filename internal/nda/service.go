package nda

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/audit"
	auditdomain "startup-dataroom/backend/internal/audit/domain"
	"startup-dataroom/backend/internal/nda/domain"
	"startup-dataroom/backend/internal/nda/repository"
	sessiondomain "startup-dataroom/backend/internal/sharesession/domain"
	"startup-dataroom/backend/internal/telemetry"
	telemetrydomain "startup-dataroom/backend/internal/telemetry/domain"
)

// SessionRepo is the minimal session repository needed by the NDA service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
}

// Service runs the per-visitor NDA state machine attached to share sessions.
type Service struct {
	repo          repository.Repository
	sessions      SessionRepo
	auditor       audit.Recorder
	emitter       telemetry.EventEmitter
	defaultPolicy domain.DeadlinePolicy
	nowF          func() time.Time
}

// NewService returns an NDA service. defaultPolicy applies when Request is
// called without an explicit policy; emitter may be nil.
func NewService(
	repo repository.Repository,
	sessions SessionRepo,
	auditor audit.Recorder,
	emitter telemetry.EventEmitter,
	defaultPolicy domain.DeadlinePolicy,
) *Service {
	if defaultPolicy == "" {
		defaultPolicy = domain.DeadlineNone
	}
	return &Service{
		repo:          repo,
		sessions:      sessions,
		auditor:       auditor,
		emitter:       emitter,
		defaultPolicy: defaultPolicy,
		nowF:          func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the service clock. Test hook.
func (s *Service) SetNow(nowF func() time.Time) { s.nowF = nowF }

// Request creates a pending NDA request for the signer on the given session.
// The session must exist and be resolvable. One request exists per (session,
// signer email) pair; requesting again returns the existing record unchanged.
// customDeadline is only consulted for the custom policy.
func (s *Service) Request(ctx context.Context, sessionID string, signer domain.Signer, policy domain.DeadlinePolicy, customDeadline *time.Time) (*domain.Request, error) {
	if signer.Email == "" {
		return nil, fmt.Errorf("%w: signer email is required", apperr.ErrInvalidInput)
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrNotFound, sessionID)
	}
	if session.IsExpired(now) {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrExpired, sessionID)
	}
	if !session.Active {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrRevoked, sessionID)
	}

	existing, err := s.repo.GetBySessionAndSigner(ctx, sessionID, signer.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.lazyExpire(ctx, existing, now)
	}

	deadline, err := s.resolveDeadline(policy, customDeadline, now)
	if err != nil {
		return nil, err
	}
	req := &domain.Request{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Signer:      signer,
		Status:      domain.StatusPending,
		RequestedAt: now,
		Deadline:    deadline,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventNDARequested,
		SessionID: sessionID,
		Actor:     signer.Email,
		CreatedAt: now,
	})
	return req, nil
}

// Sign transitions a pending request to signed. Signing an already signed
// request is a no-op returning the record unchanged. A pending request past
// its deadline is expired instead and ErrExpired returned; declined and
// expired requests cannot be signed.
func (s *Service) Sign(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.pendingOrTerminal(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.StatusSigned {
		return req, nil
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: nda request %s is %s", apperr.ErrWorkflowClosed, id, req.Status)
	}

	now := s.nowF()
	if err := s.repo.UpdateStatus(ctx, id, domain.StatusSigned, &now); err != nil {
		return nil, err
	}
	req.Status = domain.StatusSigned
	req.SignedAt = &now
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventNDASigned,
		SessionID: req.SessionID,
		Actor:     req.Signer.Email,
		CreatedAt: now,
	})
	return req, nil
}

// Decline transitions a pending request to declined. Declining an already
// declined request is a no-op; signed and expired requests cannot be declined.
func (s *Service) Decline(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.pendingOrTerminal(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.StatusDeclined {
		return req, nil
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: nda request %s is %s", apperr.ErrWorkflowClosed, id, req.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.StatusDeclined, nil); err != nil {
		return nil, err
	}
	req.Status = domain.StatusDeclined
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventNDADeclined,
		SessionID: req.SessionID,
		Actor:     req.Signer.Email,
		CreatedAt: s.nowF(),
	})
	return req, nil
}

// Get returns the request for id, applying lazy expiry.
func (s *Service) Get(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nda request %s", apperr.ErrNotFound, id)
	}
	return s.lazyExpire(ctx, req, s.nowF())
}

// ListBySession returns the session's requests, applying lazy expiry.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]*domain.Request, error) {
	reqs, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	for i, req := range reqs {
		expired, err := s.lazyExpire(ctx, req, now)
		if err != nil {
			return nil, err
		}
		reqs[i] = expired
	}
	return reqs, nil
}

// Gate reports whether the identity may reach the session's documents. It
// returns nil only when that identity's request is signed; every other state,
// including no request at all, yields ErrAccessDenied and is audited with
// Success=false.
func (s *Service) Gate(ctx context.Context, sessionID, signerEmail string) error {
	req, err := s.repo.GetBySessionAndSigner(ctx, sessionID, signerEmail)
	if err != nil {
		return err
	}
	now := s.nowF()
	if req != nil {
		if req, err = s.lazyExpire(ctx, req, now); err != nil {
			return err
		}
		if req.Status == domain.StatusSigned {
			return nil
		}
	}
	// Declined, expired, still pending, and missing all read the same to the
	// caller; the audit trail keeps the distinction.
	if s.auditor != nil {
		s.auditor.Record(ctx, &auditdomain.Entry{
			Timestamp: now,
			Action:    auditdomain.ActionView,
			SessionID: sessionID,
			Actor:     signerEmail,
			Success:   false,
		})
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventAccessDenied,
		SessionID: sessionID,
		Actor:     signerEmail,
		CreatedAt: now,
	})
	return fmt.Errorf("%w: nda not signed for session %s", apperr.ErrAccessDenied, sessionID)
}

func (s *Service) pendingOrTerminal(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nda request %s", apperr.ErrNotFound, id)
	}
	now := s.nowF()
	if req.DeadlinePassed(now) {
		if _, err := s.lazyExpire(ctx, req, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: nda request %s deadline passed", apperr.ErrExpired, id)
	}
	return req, nil
}

// lazyExpire downgrades a pending request past its deadline to expired and
// persists the transition. Returns the request in its effective state.
func (s *Service) lazyExpire(ctx context.Context, req *domain.Request, now time.Time) (*domain.Request, error) {
	if !req.DeadlinePassed(now) {
		return req, nil
	}
	if err := s.repo.UpdateStatus(ctx, req.ID, domain.StatusExpired, nil); err != nil {
		return nil, err
	}
	req.Status = domain.StatusExpired
	return req, nil
}

func (s *Service) resolveDeadline(policy domain.DeadlinePolicy, custom *time.Time, now time.Time) (*time.Time, error) {
	if policy == "" {
		policy = s.defaultPolicy
	}
	switch policy {
	case domain.Deadline7Days:
		t := now.Add(7 * 24 * time.Hour)
		return &t, nil
	case domain.Deadline30Days:
		t := now.Add(30 * 24 * time.Hour)
		return &t, nil
	case domain.DeadlineCustom:
		if custom == nil {
			return nil, fmt.Errorf("%w: custom deadline policy requires a date", apperr.ErrInvalidInput)
		}
		t := custom.UTC()
		return &t, nil
	case domain.DeadlineNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown deadline policy %q", apperr.ErrInvalidInput, policy)
}
