package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
)

const testSecret = "test-secret-at-least-16-chars!!"

// newTestSessionService creates a SessionService with a fixed secret so
// tests are deterministic.
func newTestSessionService(t *testing.T, ttl, maxLifetime time.Duration, sliding bool) *SessionService {
	t.Helper()
	s, err := NewSessionService(testSecret, ttl, maxLifetime, sliding)
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return s
}

func testUser() *model.User {
	return &model.User{
		ID:    "user-123",
		Name:  "Test User",
		Email: "test@example.com",
	}
}

func TestNewSessionService_ShortSecret(t *testing.T) {
	if _, err := NewSessionService("short", time.Hour, 12*time.Hour, true); err == nil {
		t.Fatal("NewSessionService() should reject secrets shorter than 16 chars")
	}
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token, err := s.Issue(testUser(), "provider-access-token")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, renewed, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "test@example.com")
	}
	if claims.ProviderToken != "provider-access-token" {
		t.Errorf("ProviderToken = %q, want %q", claims.ProviderToken, "provider-access-token")
	}
	if !claims.Renewable {
		t.Error("Renewable = false, want true for a sliding service")
	}
	if claims.ID == "" {
		t.Error("claims.ID is empty — termination needs a token ID")
	}
	// A freshly issued token has its whole TTL left; no renewal yet.
	if renewed != "" {
		t.Errorf("Validate() renewed a fresh token")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token, _ := s.Issue(testUser(), "")
	tampered := token[:len(token)-4] + "XXXX"

	_, _, err := s.Validate(tampered)
	if !errors.Is(err, apperror.ErrSessionInvalid) {
		t.Errorf("Validate(tampered) error = %v, want ErrSessionInvalid", err)
	}
}

func TestValidate_GarbageToken(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	_, _, err := s.Validate("not-a-jwt-at-all")
	if !errors.Is(err, apperror.ErrSessionInvalid) {
		t.Errorf("Validate(garbage) error = %v, want ErrSessionInvalid", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token, err := s.IssueWithTTL(testUser(), "", -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	_, _, err = s.Validate(token)
	if !errors.Is(err, apperror.ErrSessionExpired) {
		t.Errorf("Validate(expired) error = %v, want ErrSessionExpired", err)
	}
	if errors.Is(err, apperror.ErrSessionInvalid) {
		t.Error("expired must be distinguishable from invalid")
	}
}

func TestTerminate_ValidateFailsAfterwards(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token, _ := s.Issue(testUser(), "")
	if _, _, err := s.Validate(token); err != nil {
		t.Fatalf("Validate() before Terminate error = %v", err)
	}

	s.Terminate(token)

	_, _, err := s.Validate(token)
	if !errors.Is(err, apperror.ErrSessionInvalid) {
		t.Errorf("Validate(terminated) error = %v, want ErrSessionInvalid", err)
	}
}

func TestTerminate_Idempotent(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token, _ := s.Issue(testUser(), "")
	s.Terminate(token)
	s.Terminate(token) // second call must be a graceful no-op

	_, _, err := s.Validate(token)
	if !errors.Is(err, apperror.ErrSessionInvalid) {
		t.Errorf("Validate() after double Terminate error = %v, want ErrSessionInvalid", err)
	}
}

func TestTerminate_MalformedTokenIsNoOp(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)
	s.Terminate("garbage") // must not panic or poison the denylist

	token, _ := s.Issue(testUser(), "")
	if _, _, err := s.Validate(token); err != nil {
		t.Errorf("Validate() error = %v after terminating garbage", err)
	}
}

func TestTerminate_DoesNotAffectOtherSessions(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, true)

	token1, _ := s.Issue(testUser(), "")
	token2, _ := s.Issue(testUser(), "")

	s.Terminate(token1)

	if _, _, err := s.Validate(token2); err != nil {
		t.Errorf("Validate(other session) error = %v, want nil", err)
	}
}

func TestSlidingRenewal_ExtendsExpiry(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 24*time.Hour, true)

	// A token with one minute left is well past half its (one hour) life.
	token, err := s.IssueWithTTL(testUser(), "", time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	claims, renewed, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if renewed == "" {
		t.Fatal("Validate() did not renew a near-expiry renewable token")
	}

	renewedClaims, again, err := s.Validate(renewed)
	if err != nil {
		t.Fatalf("Validate(renewed) error = %v", err)
	}
	if !renewedClaims.ExpiresAt.Time.After(claims.IssuedAt.Time.Add(time.Minute)) {
		t.Error("renewed token expiry was not extended")
	}
	// The renewed token now has close to a full TTL — no further renewal.
	if again != "" {
		t.Error("Validate() renewed a freshly renewed token")
	}
	// Renewal must preserve the token ID so Terminate still works.
	if renewedClaims.ID != claims.ID {
		t.Errorf("renewed token ID = %q, want %q", renewedClaims.ID, claims.ID)
	}
}

func TestSlidingRenewal_CappedByMaxLifetime(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 2*time.Minute, true)

	token, _ := s.IssueWithTTL(testUser(), "", time.Minute)

	claims, renewed, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if renewed == "" {
		t.Fatal("expected a renewal up to the lifetime cap")
	}

	cap := claims.IssuedAt.Time.Add(2 * time.Minute)
	if claims.ExpiresAt.Time.After(cap.Add(time.Second)) {
		t.Errorf("renewed expiry %v exceeds lifetime cap %v", claims.ExpiresAt.Time, cap)
	}

	// The session is pinned at its cap now; no further extension possible.
	_, again, err := s.Validate(renewed)
	if err != nil {
		t.Fatalf("Validate(renewed) error = %v", err)
	}
	if again != "" {
		t.Error("Validate() renewed past the absolute lifetime cap")
	}
}

func TestSlidingRenewal_DisabledService(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 12*time.Hour, false)

	token, _ := s.IssueWithTTL(testUser(), "", time.Minute)

	claims, renewed, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Renewable {
		t.Error("Renewable = true on a non-sliding service")
	}
	if renewed != "" {
		t.Error("Validate() renewed a token from a non-sliding service")
	}
}

func TestTerminate_KillsRenewedToken(t *testing.T) {
	s := newTestSessionService(t, time.Hour, 24*time.Hour, true)

	token, _ := s.IssueWithTTL(testUser(), "", time.Minute)
	_, renewed, err := s.Validate(token)
	if err != nil || renewed == "" {
		t.Fatalf("setup: Validate() = (renewed=%q, err=%v)", renewed, err)
	}

	// Terminating either form of the session must kill both: they share a
	// token ID.
	s.Terminate(token)

	if _, _, err := s.Validate(renewed); !errors.Is(err, apperror.ErrSessionInvalid) {
		t.Errorf("Validate(renewed) after Terminate error = %v, want ErrSessionInvalid", err)
	}
}
