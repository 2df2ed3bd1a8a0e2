package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// okHandler records whether it ran and what claims it saw.
type okHandler struct {
	ran    bool
	claims *Claims
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ran = true
	h.claims, _ = ClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestRequireSession_NoCookie(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	next := &okHandler{}
	mw := RequireSession(s)(next)

	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if next.ran {
		t.Error("handler ran for an anonymous request")
	}
}

func TestRequireSession_ValidCookie(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	token, _ := s.Issue(testUser(), "")

	next := &okHandler{}
	mw := RequireSession(s)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !next.ran || next.claims == nil {
		t.Fatal("handler did not run with claims in context")
	}
	if next.claims.Email != "test@example.com" {
		t.Errorf("claims.Email = %q, want test@example.com", next.claims.Email)
	}
}

func TestRequireSession_TerminatedCookie(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	token, _ := s.Issue(testUser(), "")
	s.Terminate(token)

	next := &okHandler{}
	mw := RequireSession(s)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for a terminated session", rr.Code)
	}
	if next.ran {
		t.Error("handler ran with a terminated session")
	}
}

func TestRequireSession_RenewalResetsCookie(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 24*time.Hour, true)
	// Nearly expired: validation will mint a renewal.
	token, _ := s.IssueWithTTL(testUser(), "", time.Minute)

	next := &okHandler{}
	mw := RequireSession(s)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var renewed *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			renewed = c
		}
	}
	if renewed == nil || renewed.Value == "" || renewed.Value == token {
		t.Fatal("renewal did not re-set the session cookie with a fresh token")
	}
	if _, _, err := s.Validate(renewed.Value); err != nil {
		t.Errorf("Validate(renewed cookie) error = %v", err)
	}
}

func TestOptionalSession_AnonymousPassesThrough(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	next := &okHandler{}
	mw := OptionalSession(s)(next)

	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if !next.ran {
		t.Error("handler did not run for an anonymous request")
	}
	if next.claims != nil {
		t.Error("anonymous request carried claims")
	}
}

func TestOptionalSession_ValidCookieAttachesClaims(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	token, _ := s.Issue(testUser(), "")

	next := &okHandler{}
	mw := OptionalSession(s)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	if next.claims == nil {
		t.Fatal("valid cookie did not attach claims")
	}
	if next.claims.Subject != "user-123" {
		t.Errorf("claims.Subject = %q, want user-123", next.claims.Subject)
	}
}
