package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"startup-dataroom/backend/internal/audit"
	audithandler "startup-dataroom/backend/internal/audit/handler"
	auditrepo "startup-dataroom/backend/internal/audit/repository"
	documentdomain "startup-dataroom/backend/internal/document/domain"
	documenthandler "startup-dataroom/backend/internal/document/handler"
	documentrepo "startup-dataroom/backend/internal/document/repository"
	"startup-dataroom/backend/internal/nda"
	ndadomain "startup-dataroom/backend/internal/nda/domain"
	ndahandler "startup-dataroom/backend/internal/nda/handler"
	ndarepo "startup-dataroom/backend/internal/nda/repository"
	"startup-dataroom/backend/internal/security"
	sessionhandler "startup-dataroom/backend/internal/sharesession/handler"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
	sessionservice "startup-dataroom/backend/internal/sharesession/service"
	visibilityengine "startup-dataroom/backend/internal/visibility/engine"
)

type testEnv struct {
	server *httptest.Server
	tokens *security.TokenProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	docs := documentrepo.NewMemoryRepository()
	auditSvc := audit.NewService(auditrepo.NewMemoryRepository())
	sessions := sessionrepo.NewMemoryRepository()
	sessionSvc := sessionservice.NewService(
		sessions, docs, visibilityengine.NewStaticEvaluator(),
		audit.NewLogger(auditSvc), nil, nil, "https://rooms.example.com",
	)
	ndaSvc := nda.NewService(ndarepo.NewMemoryRepository(), sessions, audit.NewLogger(auditSvc), nil, ndadomain.DeadlineNone)

	sessionH := sessionhandler.New(sessionSvc, ndaSvc)
	ndaH := ndahandler.New(ndaSvc)
	router := NewRouter(tokens, Features{
		Management: []ManagementRoutes{sessionH, ndaH, audithandler.New(auditSvc), documenthandler.New(docs)},
		Public:     []PublicRoutes{sessionH, ndaH},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func (e *testEnv) token(t *testing.T, userID, tier string) string {
	t.Helper()
	access, _, _, err := e.tokens.IssueAccess(userID, tier)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return access
}

func TestManagementRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodGet, "/v1/audit", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", resp.StatusCode)
	}
}

func TestShareLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "founder", "private")

	// Seed two documents.
	var docIDs []string
	for _, name := range []string{"Pitch deck", "Cap table"} {
		resp, body := env.do(t, http.MethodPost, "/v1/documents", token, map[string]any{
			"name": name, "visibility": "public",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create document: status = %d: %s", resp.StatusCode, body)
		}
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			t.Fatalf("decode document: %v", err)
		}
		docIDs = append(docIDs, doc.ID)
	}

	// Create a session expiring in 7 days.
	expires := time.Now().UTC().Add(7 * 24 * time.Hour)
	resp, body := env.do(t, http.MethodPost, "/v1/sessions", token, map[string]any{
		"name": "Series A room", "documentIds": docIDs, "expiresAt": expires,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status = %d: %s", resp.StatusCode, body)
	}
	var session struct {
		ID          string `json:"id"`
		AccessCount int64  `json:"accessCount"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	// Resolve it three times; the access count follows.
	for i := 1; i <= 3; i++ {
		resp, body = env.do(t, http.MethodGet, "/share/"+session.ID, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("resolve %d: status = %d: %s", i, resp.StatusCode, body)
		}
	}
	if err := json.Unmarshal(body, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.AccessCount != 3 {
		t.Errorf("accessCount = %d, want 3", session.AccessCount)
	}

	// Documents are public-tier visible to anonymous visitors.
	resp, body = env.do(t, http.MethodGet, "/share/"+session.ID+"/documents", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("documents: status = %d: %s", resp.StatusCode, body)
	}
	var docs []documentdomain.Document
	if err := json.Unmarshal(body, &docs); err != nil {
		t.Fatalf("decode documents: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("documents = %d, want 2", len(docs))
	}

	// Revoke, then the link is gone.
	resp, _ = env.do(t, http.MethodPost, "/v1/sessions/"+session.ID+"/revoke", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("revoke: status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/share/"+session.ID, "", nil)
	if resp.StatusCode != http.StatusGone {
		t.Errorf("resolve revoked: status = %d, want 410", resp.StatusCode)
	}
}

func TestNDAGateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "founder", "private")

	resp, body := env.do(t, http.MethodPost, "/v1/documents", token, map[string]any{
		"name": "Board minutes", "visibility": "public",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create document: status = %d: %s", resp.StatusCode, body)
	}
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}

	resp, body = env.do(t, http.MethodPost, "/v1/sessions", token, map[string]any{
		"name": "Gated room", "documentIds": []string{doc.ID}, "requireNda": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status = %d: %s", resp.StatusCode, body)
	}
	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	const email = "ada@fund.example"
	docsPath := fmt.Sprintf("/share/%s/documents?email=%s", session.ID, email)

	// Without a signed NDA the documents are unreachable.
	resp, _ = env.do(t, http.MethodGet, docsPath, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("gated documents without nda: status = %d, want 403", resp.StatusCode)
	}

	// Request an NDA with a 7 day deadline, then decline it.
	resp, body = env.do(t, http.MethodPost, "/share/"+session.ID+"/nda", "", map[string]any{
		"name": "Ada Example", "email": email, "deadlinePolicy": "7days",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request nda: status = %d: %s", resp.StatusCode, body)
	}
	var request struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &request); err != nil {
		t.Fatalf("decode nda request: %v", err)
	}
	resp, _ = env.do(t, http.MethodPost, "/nda/"+request.ID+"/decline", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decline nda: status = %d", resp.StatusCode)
	}

	// Still denied, and the denial is in the audit trail.
	resp, _ = env.do(t, http.MethodGet, docsPath, "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("gated documents after decline: status = %d, want 403", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/v1/audit?sessionId="+session.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit query: status = %d", resp.StatusCode)
	}
	var entries []struct {
		Success bool   `json:"success"`
		Actor   string `json:"actor"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode audit entries: %v", err)
	}
	denied := 0
	for _, e := range entries {
		if !e.Success && e.Actor == email {
			denied++
		}
	}
	if denied != 2 {
		t.Errorf("denied audit entries for %s = %d, want 2", email, denied)
	}

	// Sign path works for a second visitor.
	resp, body = env.do(t, http.MethodPost, "/share/"+session.ID+"/nda", "", map[string]any{
		"name": "Bob Example", "email": "bob@fund.example",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request nda: status = %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &request); err != nil {
		t.Fatalf("decode nda request: %v", err)
	}
	resp, _ = env.do(t, http.MethodPost, "/nda/"+request.ID+"/sign", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign nda: status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/share/"+session.ID+"/documents?email=bob@fund.example", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("gated documents after sign: status = %d, want 200", resp.StatusCode)
	}
}
