package auth

import (
	"context"
	"net/http"
	"time"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the claims value.
type contextKey string

const claimsKey contextKey = "sessionClaims"

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// RequireSession enforces a valid session on protected routes.
//
// It reads the session cookie, validates the token, and stores the claims in
// the request context. Expired, terminated, malformed, or absent tokens all
// get 401 — the caller is simply anonymous. When sliding renewal produced a
// fresh token, the cookie is re-set before the request proceeds.
func RequireSession(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(w, r, sessions)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalSession extracts the session claims if a valid token is present
// but never blocks the request. Handlers decide what anonymous means for
// them via ClaimsFromContext.
func OptionalSession(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := authenticate(w, r, sessions); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext retrieves the validated session claims set by
// RequireSession or OptionalSession. Returns (nil, false) for anonymous
// requests. Identity travels as explicit data from here on — nothing
// downstream re-reads cookies or tokens.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// WriteSessionCookie sets the session cookie. maxAge should match the
// token's TTL; validation rejects stale tokens regardless of cookie age.
func WriteSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// authenticate validates the session cookie and handles sliding renewal.
// Shared by RequireSession and OptionalSession.
func authenticate(w http.ResponseWriter, r *http.Request, sessions *SessionService) (*Claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, err
	}

	claims, renewed, err := sessions.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}

	if renewed != "" {
		WriteSessionCookie(w, renewed, sessions.TTL())
	}
	return claims, nil
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}
