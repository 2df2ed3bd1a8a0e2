package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/auth"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

// IdentityProvider is the slice of the OAuth provider the orchestration
// needs. *auth.GoogleProvider satisfies it; tests substitute a fake.
type IdentityProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// TokenRevoker revokes a provider access token, best-effort.
// *auth.RevocationClient satisfies it.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string)
}

// AuthService orchestrates the login and logout flows:
//
//	BeginLogin    → provider challenge URL (no local side effects)
//	CompleteLogin → exchange → reconcile → audit Login → issue session
//	Logout        → audit Logout → revoke provider token → terminate session
//
// The CompleteLogin sequence is not transactional: if reconciliation or the
// audit write fails after the provider has confirmed the identity, the login
// fails closed — no session is issued — and the now-unused provider token is
// handed to the revoker as best-effort cleanup.
type AuthService struct {
	provider  IdentityProvider
	users     repository.UserRepository
	audit     *AuditLogger
	sessions  *auth.SessionService
	revoker   TokenRevoker
	exchangeT time.Duration
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. exchangeTimeout bounds the provider
// round-trip during CompleteLogin; exceeding it counts as a provider
// failure, not a hang.
func NewAuthService(
	provider IdentityProvider,
	users repository.UserRepository,
	audit *AuditLogger,
	sessions *auth.SessionService,
	revoker TokenRevoker,
	exchangeTimeout time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider:  provider,
		users:     users,
		audit:     audit,
		sessions:  sessions,
		revoker:   revoker,
		exchangeT: exchangeTimeout,
		logger:    logger,
	}
}

// LoginResult bundles the reconciled user and the issued session token so
// the handler can set the cookie and respond in one step.
type LoginResult struct {
	User  *model.User
	Token string
}

// BeginLogin returns a fresh CSRF state value and the provider authorization
// URL bound to it. The handler stores the state in a short-lived cookie and
// redirects; no local state changes here.
func (s *AuthService) BeginLogin() (state, url string) {
	state = xid.New().String()
	return state, s.provider.AuthURL(state)
}

// CompleteLogin handles the provider callback.
//
// Failure modes, in order of occurrence:
//   - apperror.ErrProviderAuth — the code exchange failed or timed out; the
//     provider never confirmed the identity.
//   - apperror.ErrMissingClaim — the provider confirmed someone but the
//     response lacks the email or subject claim; no user row is created.
//   - storage errors from reconciliation or the Login audit write — the
//     login fails closed with the provider token revoked.
//
// On success exactly one user row exists for the asserted email (created or
// updated), exactly one Login audit record was written, and the returned
// token validates immediately.
func (s *AuthService) CompleteLogin(ctx context.Context, code, sourceIP string) (*LoginResult, error) {
	exchangeCtx, cancel := context.WithTimeout(ctx, s.exchangeT)
	defer cancel()

	identity, err := s.provider.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w: %w", apperror.ProviderAuthFailed("provider did not confirm the identity"), err)
	}

	user, err := s.reconcile(ctx, identity)
	if err != nil {
		// The provider handed us a usable token we will never use.
		s.revoker.Revoke(ctx, identity.AccessToken)
		return nil, err
	}

	// Fail closed if the login cannot be audited. Revoking keeps the
	// provider side tidy; the local user row staying behind is harmless.
	if err := s.audit.Record(ctx, model.ActionLogin, user.Email, identity.Provider, sourceIP); err != nil {
		s.revoker.Revoke(ctx, identity.AccessToken)
		return nil, err
	}

	token, err := s.sessions.Issue(user, identity.AccessToken)
	if err != nil {
		s.revoker.Revoke(ctx, identity.AccessToken)
		return nil, fmt.Errorf("service/auth: issuing session for %s: %w", user.Email, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
		slog.String("provider", identity.Provider),
	)

	return &LoginResult{User: user, Token: token}, nil
}

// Logout terminates the session described by claims/token.
//
// The audit write and the revocation are both best-effort; termination
// always happens. Calling Logout with nil claims (already-terminated or
// anonymous session) is a graceful no-op apart from Terminate, which is
// itself idempotent.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, token, sourceIP string) {
	if claims != nil && claims.Email != "" {
		s.audit.RecordBestEffort(ctx, model.ActionLogout, claims.Email, s.provider.Name(), sourceIP)
	}
	if claims != nil && claims.ProviderToken != "" {
		s.revoker.Revoke(ctx, claims.ProviderToken)
	}
	if token != "" {
		s.sessions.Terminate(token)
	}
}

// SessionTTL exposes the configured session lifetime so handlers can size
// the cookie's MaxAge to match the token's expiry.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ListUsers returns all local accounts, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing users: %w", err)
	}
	return users, nil
}

// reconcile maps the provider-asserted identity onto a local user row:
// create on first login, refresh last_login (and profile facts) afterwards.
//
// The lookup-then-write pair is not atomic, so two first logins for the same
// email can race. The database's UNIQUE constraint on email decides the
// winner; the loser's insert comes back as ErrConflict and is retried as an
// update of the row that now exists. One retry is sufficient — after a
// conflict the row is guaranteed to be there.
func (s *AuthService) reconcile(ctx context.Context, identity *auth.Identity) (*model.User, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("service/auth: reconciling identity: %w", apperror.MissingClaim("email"))
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("service/auth: reconciling identity: %w", apperror.MissingClaim("sub"))
	}

	now := time.Now()

	existing, err := s.users.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return s.refresh(ctx, existing, identity, now)
	case errors.Is(err, apperror.ErrNotFound):
		// first login for this email
	default:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", identity.Email, err)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	user := &model.User{
		Name:        name,
		Email:       identity.Email,
		Provider:    identity.Provider,
		ProviderKey: identity.Subject,
		CreatedOn:   now,
		LastLogin:   now,
	}

	err = s.users.Insert(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", identity.Email, err)
	}

	// Lost the concurrent-first-login race: someone else inserted this
	// email between our lookup and insert. Treat as an update.
	existing, err = s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: re-reading user %s after conflict: %w", identity.Email, err)
	}
	return s.refresh(ctx, existing, identity, now)
}

// refresh updates an existing row for a repeat login: last_login always,
// profile facts when the provider asserted them. created_on is untouched.
func (s *AuthService) refresh(ctx context.Context, user *model.User, identity *auth.Identity, now time.Time) (*model.User, error) {
	if identity.Name != "" {
		user.Name = identity.Name
	}
	user.Provider = identity.Provider
	user.ProviderKey = identity.Subject
	user.LastLogin = now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", user.Email, err)
	}
	return user, nil
}
