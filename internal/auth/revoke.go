package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RevocationClient makes the best-effort call to the provider's token
// revocation endpoint on logout.
//
// Revocation is a courtesy to the provider, not a precondition for local
// logout correctness, so Revoke deliberately has no error return: every
// outcome — 2xx, 4xx (token already invalid), network failure, timeout — is
// logged and swallowed. Keeping the signature error-free makes the
// non-fatal contract impossible for callers to get wrong.
type RevocationClient struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewRevocationClient creates a RevocationClient for the given endpoint,
// e.g. "https://oauth2.googleapis.com/revoke". timeout bounds each call.
func NewRevocationClient(endpoint string, timeout time.Duration, logger *slog.Logger) *RevocationClient {
	return &RevocationClient{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Revoke posts the access token to the revocation endpoint. An empty token
// is a no-op.
func (c *RevocationClient) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Warn("token revocation skipped", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("token revocation failed", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// Any status is fine — a 400 usually means the token was already
	// invalid, which is exactly the state we wanted.
	c.logger.Debug("token revocation completed", slog.Int("status", resp.StatusCode))
}
