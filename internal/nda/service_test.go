package nda

import (
	"context"
	"errors"
	"testing"
	"time"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/audit"
	auditrepo "startup-dataroom/backend/internal/audit/repository"
	"startup-dataroom/backend/internal/nda/domain"
	"startup-dataroom/backend/internal/nda/repository"
	sessiondomain "startup-dataroom/backend/internal/sharesession/domain"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
)

var signer = domain.Signer{Name: "Ada Example", Email: "ada@fund.example", Company: "Fund LP"}

type fixture struct {
	svc      *Service
	auditSvc *audit.Service
	sessions *sessionrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := sessionrepo.NewMemoryRepository()
	auditSvc := audit.NewService(auditrepo.NewMemoryRepository())
	svc := NewService(
		repository.NewMemoryRepository(),
		sessions,
		audit.NewLogger(auditSvc),
		nil,
		domain.DeadlineNone,
	)
	return &fixture{svc: svc, auditSvc: auditSvc, sessions: sessions}
}

func (f *fixture) seedSession(t *testing.T, id string, active bool, expiresAt *time.Time) {
	t.Helper()
	err := f.sessions.Create(context.Background(), &sessiondomain.Session{
		ID:          id,
		Name:        "room",
		DocumentIDs: []string{"doc-1"},
		Active:      active,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestRequest_CreatesPendingWithDeadline(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	start := time.Now().UTC()
	req, err := f.svc.Request(ctx, "s-1", signer, domain.Deadline7Days, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Status != domain.StatusPending {
		t.Errorf("Status = %s, want pending", req.Status)
	}
	if req.Deadline == nil {
		t.Fatal("Deadline should be set for 7days policy")
	}
	want := start.Add(7 * 24 * time.Hour)
	if req.Deadline.Before(want.Add(-time.Minute)) || req.Deadline.After(want.Add(time.Minute)) {
		t.Errorf("Deadline = %v, want ~%v", req.Deadline, want)
	}
}

func TestRequest_SessionChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Request(ctx, "missing", signer, domain.DeadlineNone, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown session: err = %v, want ErrNotFound", err)
	}

	f.seedSession(t, "revoked", false, nil)
	if _, err := f.svc.Request(ctx, "revoked", signer, domain.DeadlineNone, nil); !errors.Is(err, apperr.ErrRevoked) {
		t.Errorf("revoked session: err = %v, want ErrRevoked", err)
	}

	past := time.Now().UTC().Add(-time.Second)
	f.seedSession(t, "expired", true, &past)
	if _, err := f.svc.Request(ctx, "expired", signer, domain.DeadlineNone, nil); !errors.Is(err, apperr.ErrExpired) {
		t.Errorf("expired session: err = %v, want ErrExpired", err)
	}

	f.seedSession(t, "s-1", true, nil)
	if _, err := f.svc.Request(ctx, "s-1", domain.Signer{Name: "no email"}, domain.DeadlineNone, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing email: err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Request(ctx, "s-1", signer, domain.DeadlineCustom, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("custom policy without date: err = %v, want ErrInvalidInput", err)
	}
}

func TestRequest_SameSignerReturnsExisting(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	first, err := f.svc.Request(ctx, "s-1", signer, domain.Deadline30Days, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	again, err := f.svc.Request(ctx, "s-1", signer, domain.Deadline7Days, nil)
	if err != nil {
		t.Fatalf("second Request: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second request created a new record: %s != %s", again.ID, first.ID)
	}

	// Distinct identities get distinct requests.
	other, err := f.svc.Request(ctx, "s-1", domain.Signer{Email: "bob@fund.example"}, domain.DeadlineNone, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if other.ID == first.ID {
		t.Error("distinct signer should get a distinct request")
	}
}

func TestSign_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	req, err := f.svc.Request(ctx, "s-1", signer, domain.DeadlineNone, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	signed, err := f.svc.Sign(ctx, req.ID)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if signed.Status != domain.StatusSigned || signed.SignedAt == nil {
		t.Fatalf("after sign: status=%s signedAt=%v", signed.Status, signed.SignedAt)
	}

	again, err := f.svc.Sign(ctx, req.ID)
	if err != nil {
		t.Fatalf("second Sign: %v", err)
	}
	if again.Status != domain.StatusSigned || !again.SignedAt.Equal(*signed.SignedAt) {
		t.Error("repeat sign should return the record unchanged")
	}
}

func TestSign_AfterDeadlineExpires(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(time.Hour)
	req, err := f.svc.Request(ctx, "s-1", signer, domain.DeadlineCustom, &deadline)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	f.svc.SetNow(func() time.Time { return deadline.Add(time.Second) })
	if _, err := f.svc.Sign(ctx, req.ID); !errors.Is(err, apperr.ErrExpired) {
		t.Fatalf("sign past deadline: err = %v, want ErrExpired", err)
	}

	got, err := f.svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusExpired {
		t.Errorf("Status = %s, want expired (lazy transition persisted)", got.Status)
	}
}

func TestDecline_TerminalStates(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	req, err := f.svc.Request(ctx, "s-1", signer, domain.DeadlineNone, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	declined, err := f.svc.Decline(ctx, req.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if declined.Status != domain.StatusDeclined {
		t.Fatalf("Status = %s, want declined", declined.Status)
	}
	// Repeat decline is a no-op.
	if _, err := f.svc.Decline(ctx, req.ID); err != nil {
		t.Fatalf("second Decline: %v", err)
	}
	// Declined is terminal; signing now is a closed-workflow error.
	if _, err := f.svc.Sign(ctx, req.ID); !errors.Is(err, apperr.ErrWorkflowClosed) {
		t.Errorf("sign after decline: err = %v, want ErrWorkflowClosed", err)
	}

	other, err := f.svc.Request(ctx, "s-1", domain.Signer{Email: "bob@fund.example"}, domain.DeadlineNone, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := f.svc.Sign(ctx, other.ID); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := f.svc.Decline(ctx, other.ID); !errors.Is(err, apperr.ErrWorkflowClosed) {
		t.Errorf("decline after sign: err = %v, want ErrWorkflowClosed", err)
	}
}

func TestGate(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	// No request at all.
	if err := f.svc.Gate(ctx, "s-1", signer.Email); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("no request: err = %v, want ErrAccessDenied", err)
	}

	req, err := f.svc.Request(ctx, "s-1", signer, domain.DeadlineNone, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	// Pending is still denied.
	if err := f.svc.Gate(ctx, "s-1", signer.Email); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("pending: err = %v, want ErrAccessDenied", err)
	}

	if _, err := f.svc.Sign(ctx, req.ID); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := f.svc.Gate(ctx, "s-1", signer.Email); err != nil {
		t.Fatalf("signed: Gate = %v, want nil", err)
	}

	// Every denied pass through the gate left a failed audit entry.
	entries, err := f.auditSvc.Filter(ctx, audit.Criteria{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	denied := 0
	for _, e := range entries {
		if !e.Success {
			denied++
		}
	}
	if denied != 2 {
		t.Errorf("denied audit entries = %d, want 2", denied)
	}
}

func TestGate_DeclinedDenied(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s-1", true, nil)
	ctx := context.Background()

	req, err := f.svc.Request(ctx, "s-1", signer, domain.Deadline7Days, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := f.svc.Decline(ctx, req.ID); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if err := f.svc.Gate(ctx, "s-1", signer.Email); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("declined: err = %v, want ErrAccessDenied", err)
	}
}
