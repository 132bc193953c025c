package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/audit"
	auditrepo "startup-dataroom/backend/internal/audit/repository"
	documentdomain "startup-dataroom/backend/internal/document/domain"
	documentrepo "startup-dataroom/backend/internal/document/repository"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
	"startup-dataroom/backend/internal/visibility"
	visibilityengine "startup-dataroom/backend/internal/visibility/engine"
)

const baseURL = "https://rooms.example.com"

type approvedGate struct{ approved bool }

func (g approvedGate) IsScenarioApproved(ctx context.Context, scenarioID string) (bool, error) {
	return g.approved, nil
}

type fixture struct {
	svc      *Service
	auditSvc *audit.Service
	docs     *documentrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := documentrepo.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	seed := []*documentdomain.Document{
		{ID: "doc-1", Name: "Pitch deck", Visibility: documentdomain.VisibilityPublic, CreatedAt: now, UpdatedAt: now},
		{ID: "doc-2", Name: "Cap table", Visibility: documentdomain.VisibilityInvestors, CreatedAt: now, UpdatedAt: now},
		{ID: "doc-3", Name: "Board minutes", Visibility: documentdomain.VisibilityPrivate, CreatedAt: now, UpdatedAt: now},
	}
	for _, d := range seed {
		if err := docs.Create(ctx, d); err != nil {
			t.Fatalf("seed document: %v", err)
		}
	}
	auditSvc := audit.NewService(auditrepo.NewMemoryRepository())
	svc := NewService(
		sessionrepo.NewMemoryRepository(),
		docs,
		visibilityengine.NewStaticEvaluator(),
		audit.NewLogger(auditSvc),
		nil,
		nil,
		baseURL,
	)
	return &fixture{svc: svc, auditSvc: auditSvc, docs: docs}
}

func TestCreate_BuildsLinkAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Create(ctx, CreateParams{Name: "Series A room", DocumentIDs: []string{"doc-1", "doc-2"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.ID == "" {
		t.Fatal("session ID should be set")
	}
	if session.Link != baseURL+"/share/"+session.ID {
		t.Errorf("Link = %q", session.Link)
	}
	if !session.Active {
		t.Error("new session should be active")
	}
	if session.AccessCount != 0 {
		t.Errorf("AccessCount = %d, want 0", session.AccessCount)
	}

	entries, err := f.auditSvc.Filter(ctx, audit.Criteria{SessionID: session.ID})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "share" {
		t.Errorf("expected one share audit entry, got %v", entries)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: nil}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty document set: err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1", "nope"}}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown document: err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Create(ctx, CreateParams{Name: "", DocumentIDs: []string{"doc-1"}}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty name: err = %v, want ErrInvalidInput", err)
	}
}

func TestCreate_ApprovalGate(t *testing.T) {
	f := newFixture(t)
	f.svc.gate = approvedGate{approved: false}
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1"}, ScenarioID: "scn-1"})
	if !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("unapproved scenario: err = %v, want ErrAccessDenied", err)
	}

	f.svc.gate = approvedGate{approved: true}
	if _, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1"}, ScenarioID: "scn-1"}); err != nil {
		t.Fatalf("approved scenario: %v", err)
	}
}

func TestResolve_CountsAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1", "doc-2"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Resolve(ctx, session.ID, Visitor{}); err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
	}
	got, err := f.svc.Resolve(ctx, session.ID, Visitor{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AccessCount != 4 {
		t.Errorf("AccessCount = %d, want 4", got.AccessCount)
	}
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Resolve(context.Background(), "missing", Visitor{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolve_ExpiredDoesNotCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(-time.Second)
	session, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1"}, ExpiresAt: &expires})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Resolve(ctx, session.ID, Visitor{})
	if !errors.Is(err, apperr.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	// The denied attempt is audited exactly once with success=false, and the
	// access count was not touched.
	entries, err := f.auditSvc.Filter(ctx, audit.Criteria{SessionID: session.ID, Action: "view"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("view entries = %d, want 1", len(entries))
	}
	if entries[0].Success {
		t.Error("denied attempt should be audited with success=false")
	}
}

func TestResolve_Revoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Revoke(ctx, session.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// Idempotent.
	if err := f.svc.Revoke(ctx, session.ID); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}

	_, err = f.svc.Resolve(ctx, session.ID, Visitor{})
	if !errors.Is(err, apperr.ErrRevoked) {
		t.Fatalf("err = %v, want ErrRevoked", err)
	}
}

func TestResolve_ConcurrentAccessCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Resolve(ctx, session.ID, Visitor{}); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.svc.Resolve(ctx, session.ID, Visitor{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AccessCount != 101 {
		t.Errorf("AccessCount = %d, want 101 (no lost updates)", got.AccessCount)
	}
}

func TestDocuments_FilteredByTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.Create(ctx, CreateParams{Name: "room", DocumentIDs: []string{"doc-1", "doc-2", "doc-3"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	docs, err := f.svc.Documents(ctx, session.ID, visibility.TierInvestors)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("investor tier sees %d documents, want 2", len(docs))
	}

	docs, err = f.svc.Documents(ctx, session.ID, visibility.TierPrivate)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("private tier sees %d documents, want 3", len(docs))
	}
}
