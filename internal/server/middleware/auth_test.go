package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"startup-dataroom/backend/internal/security"
)

func newAuthed(t *testing.T) (*security.TokenProvider, http.Handler, *string, *string) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	var gotUser, gotTier string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		gotTier, _ = GetTier(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return tokens, RequireAuth(tokens)(inner), &gotUser, &gotTier
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens, handler, gotUser, gotTier := newAuthed(t)
	access, _, _, err := tokens.IssueAccess("u1", "team")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if *gotUser != "u1" || *gotTier != "team" {
		t.Errorf("identity = (%q, %q), want (u1, team)", *gotUser, *gotTier)
	}
}

func TestRequireAuth_MissingOrInvalid(t *testing.T) {
	_, handler, _, _ := newAuthed(t)

	for _, header := range []string{"", "Bearer not-a-token", "Basic abc", "bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireAuth_CaseInsensitiveScheme(t *testing.T) {
	tokens, handler, gotUser, _ := newAuthed(t)
	access, _, _, err := tokens.IssueAccess("u2", "investors")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if *gotUser != "u2" {
		t.Errorf("userID = %q, want u2", *gotUser)
	}
}
