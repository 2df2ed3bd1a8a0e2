package handler

import (
	"log/slog"
	"net/http"

	"github.com/tahsin/medistock/internal/auth"
	"github.com/tahsin/medistock/internal/service"
)

// AuthHandler owns the login/logout route surface:
//
//	GET  /auth/google/login    → begin the provider challenge
//	GET  /auth/google/callback → complete the login, set session cookie
//	POST /auth/logout          → audit, revoke, terminate, clear cookie
//	GET  /api/me               → current user's profile
//	GET  /login, GET /         → thin page endpoints around the flow
//
// Per the error policy, every callback failure — provider declined, missing
// claims, storage trouble — lands the user back on the login page with a
// 303; nothing from the auth pipeline surfaces as a raw error page.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

const stateCookie = "oauth_state"

// HandleGoogleLogin redirects the browser to Google's authorization page.
//
// The random state value is stored in a short-lived HttpOnly cookie; the
// callback compares it against the state Google echoes back, which stops
// CSRF-initiated logins.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, url := h.svc.BeginLogin()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch or missing state cookie")
		http.Redirect(w, r, "/login?auth=failed", http.StatusSeeOther)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/login?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?auth=failed", http.StatusSeeOther)
		return
	}

	result, err := h.svc.CompleteLogin(r.Context(), code, r.RemoteAddr)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/login?auth=failed", http.StatusSeeOther)
		return
	}

	auth.WriteSessionCookie(w, result.Token, h.svc.SessionTTL())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout logs the user out.
//
// HTTP: POST /auth/logout (POST so browsers don't prefetch it)
//
// The handler runs behind OptionalSession: an already-terminated or
// anonymous session simply skips the audit/revocation steps and still gets
// the cookie cleared and the redirect — logout is idempotent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	token := ""
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		token = cookie.Value
	}

	h.svc.Logout(r.Context(), claims, token, r.RemoteAddr)

	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me (behind RequireSession)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid session required"})
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", claims.Subject), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleLoginPage is the anonymous landing spot: already-authenticated users
// bounce to the app, everyone else gets the provider entry point.
//
// HTTP: GET /login (behind OptionalSession)
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loginUrl": "/auth/google/login"})
}

// HandleIndex is the authenticated landing page; anonymous requests are
// routed to /login rather than rejected.
//
// HTTP: GET / (behind OptionalSession)
func (h *AuthHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":  claims.Name,
		"email": claims.Email,
	})
}
