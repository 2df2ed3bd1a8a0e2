package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Identity is the normalized set of facts asserted by the identity provider
// after a successful callback. It contains facts only, no decisions: whether
// the facts are sufficient to log someone in is the reconciler's call.
//
// AccessToken is the provider's short-lived token. It is carried along so
// logout can offer it back to the provider's revocation endpoint; nothing
// else in the system uses it.
type Identity struct {
	Provider    string    // provider name, e.g. "Google"
	Subject     string    // provider-scoped unique user ID (the "sub" claim)
	Email       string    // email asserted by the provider (may be empty)
	Name        string    // display name (may be empty)
	AccessToken string    // provider access token (opaque, may be empty)
	TokenExpiry time.Time // access token expiry (zero if unknown)
}

// googleUser is the portion of Google's userinfo response we care about.
//
// Endpoint docs: https://developers.google.com/identity/openid-connect/openid-connect#obtaininguserprofileinformation
type googleUser struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow.
//
// The flow is the standard three-legged dance:
//  1. We redirect the browser to Google's authorization endpoint.
//  2. Google redirects back to our callback URL with a short-lived code.
//  3. We exchange the code for an access token (server-to-server, using the
//     client secret) and call the userinfo endpoint with it.
//
// The access token never touches the browser.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// ClientID and ClientSecret come from a Google Cloud OAuth client
// registration; callbackURL must exactly match one of its authorized
// redirect URIs, e.g. "http://localhost:8080/auth/google/callback".
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Name returns the provider identifier recorded on users and audit rows.
func (p *GoogleProvider) Name() string { return "Google" }

// AuthURL returns the URL to redirect the user to for authorization.
//
// state is a random string the caller stores in a cookie before redirecting;
// the callback handler verifies Google echoes it back unchanged, which
// prevents CSRF-initiated logins.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: it trades the authorization code for an
// access token, calls the userinfo endpoint, and returns the asserted
// identity.
//
// The returned Identity is facts-as-received. Exchange does not reject
// identities with missing claims — reconciliation owns that rule.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the
	// bearer token to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo endpoint returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	return &Identity{
		Provider:    p.Name(),
		Subject:     gu.Sub,
		Email:       gu.Email,
		Name:        gu.Name,
		AccessToken: token.AccessToken,
		TokenExpiry: token.Expiry,
	}, nil
}
