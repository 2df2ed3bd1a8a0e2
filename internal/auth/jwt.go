// Package auth provides the session state machine, the Google OAuth
// provider, and the best-effort revocation client.
//
// SESSION LIFECYCLE:
// Anonymous → Authenticated (Issue) → Expired / Terminated, both of which
// make subsequent requests anonymous again. Sessions are signed JWTs carried
// in an HttpOnly cookie; the claims encode everything validation needs
// (subject, email, issue time, absolute expiry, renewal flag), so the happy
// path touches no storage at all.
//
// Termination is the one place that needs state: a logged-out token is still
// cryptographically valid until it expires, so Terminate records its token
// ID in a small in-memory denylist that Validate consults after the
// signature and expiry checks. Entries are pruned once the token they name
// would have expired anyway, which bounds the set by the session TTL.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
)

const tokenIssuer = "medistock"

// Claims is the session token payload. It embeds jwt.RegisteredClaims
// (Subject = internal user ID, ID = per-session token ID) and adds the
// application claims.
//
// ProviderToken carries the provider's access token so logout can attempt
// revocation without any server-side token storage — the same trick the
// provider SDKs play with "save tokens into the auth cookie".
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	ProviderToken string `json:"pat,omitempty"`
	Renewable     bool   `json:"rnw"`
}

// SessionService issues, validates, renews, and terminates session tokens.
// It is safe for concurrent use.
type SessionService struct {
	secret      []byte
	ttl         time.Duration
	maxLifetime time.Duration
	sliding     bool

	mu         sync.Mutex
	terminated map[string]time.Time // token ID → that token's absolute expiry
}

// NewSessionService creates a SessionService.
//
// ttl is the absolute expiry stamped into each token. maxLifetime caps how
// far sliding renewal may extend a session past its original issue time;
// sliding toggles renewal entirely. The secret must be at least 16
// characters of random data.
func NewSessionService(secret string, ttl, maxLifetime time.Duration, sliding bool) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &SessionService{
		secret:      []byte(secret),
		ttl:         ttl,
		maxLifetime: maxLifetime,
		sliding:     sliding,
		terminated:  make(map[string]time.Time),
	}, nil
}

// TTL returns the configured per-token expiry. Handlers use it to size the
// session cookie's MaxAge.
func (s *SessionService) TTL() time.Duration { return s.ttl }

// Issue creates a signed session token for the given user. providerToken is
// the provider access token to carry for later revocation; it may be empty.
func (s *SessionService) Issue(user *model.User, providerToken string) (string, error) {
	return s.IssueWithTTL(user, providerToken, s.ttl)
}

// IssueWithTTL creates a token with a custom expiry duration. Used by tests
// to mint already-expired or short-lived tokens deterministically.
func (s *SessionService) IssueWithTTL(user *model.User, providerToken string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:         user.Email,
		Name:          user.Name,
		ProviderToken: providerToken,
		Renewable:     s.sliding,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token.
//
// It returns the claims plus a renewed token string, which is non-empty only
// when sliding renewal kicked in — the caller should then re-set the session
// cookie. Failures are apperror.ErrSessionExpired for a token past its
// absolute expiry and apperror.ErrSessionInvalid for everything else
// (malformed, bad signature, wrong issuer, or terminated).
func (s *SessionService) Validate(tokenStr string) (*Claims, string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		s.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", fmt.Errorf("auth: %w", apperror.SessionExpired())
		}
		return nil, "", fmt.Errorf("auth: %w", apperror.SessionInvalid("session token failed verification"))
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Subject == "" || c.Email == "" {
		return nil, "", fmt.Errorf("auth: %w", apperror.SessionInvalid("session token has malformed claims"))
	}

	if s.isTerminated(c.ID) {
		return nil, "", fmt.Errorf("auth: %w", apperror.SessionInvalid("session has been terminated"))
	}

	renewed := ""
	if s.sliding && c.Renewable {
		renewed = s.renew(c)
	}
	return c, renewed, nil
}

// Terminate denylists the token so subsequent Validate calls fail, no matter
// how much lifetime it had left. Idempotent; malformed or expired tokens are
// a no-op (there is nothing left to terminate).
func (s *SessionService) Terminate(tokenStr string) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, s.keyFunc)
	if err != nil {
		return
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.ID == "" || c.ExpiresAt == nil {
		return
	}

	// Renewed tokens share the original token ID, so denylisting it kills
	// every renewal of the session too. The entry only needs to outlive the
	// latest possible renewal, which the maxLifetime cap bounds.
	until := c.ExpiresAt.Time
	if s.sliding && c.IssuedAt != nil {
		until = c.IssuedAt.Time.Add(s.maxLifetime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	s.terminated[c.ID] = until
}

// renew re-signs the claims with a pushed-out expiry once the token is past
// half its life, capped at IssuedAt+maxLifetime. Returns "" when no renewal
// is due (or possible). Renewal keeps the original IssuedAt and token ID so
// the absolute cap and termination keep working across renewals.
func (s *SessionService) renew(c *Claims) string {
	now := time.Now()
	if time.Until(c.ExpiresAt.Time) >= s.ttl/2 {
		return ""
	}

	cap := c.IssuedAt.Time.Add(s.maxLifetime)
	exp := now.Add(s.ttl)
	if exp.After(cap) {
		exp = cap
	}
	if !exp.After(c.ExpiresAt.Time) {
		return "" // already at the absolute cap
	}

	rc := *c
	rc.ExpiresAt = jwt.NewNumericDate(exp)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(s.secret)
	if err != nil {
		return "" // renewal is opportunistic; the current token still stands
	}
	c.ExpiresAt = rc.ExpiresAt
	return signed
}

func (s *SessionService) isTerminated(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	_, gone := s.terminated[tokenID]
	return gone
}

// prune drops denylist entries whose tokens have expired on their own.
// Callers must hold s.mu.
func (s *SessionService) prune(now time.Time) {
	for id, until := range s.terminated {
		if now.After(until) {
			delete(s.terminated, id)
		}
	}
}

func (s *SessionService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
