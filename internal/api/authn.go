package api

import (
	"context"
	"fmt"

	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/metrics"
)

// AuthService is the session-facing surface of the upstream API.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Logout(ctx context.Context) error
	Signup(ctx context.Context, params domain.SignupParams) error
}

var _ AuthService = (*Client)(nil)

// Login authenticates against the upstream API and returns the upstream
// session token from the Set-Cookie response header. The caller stores it in
// this application's own session cookie.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	const op = "api.auth.login"

	req, err := newJSONRequest(ctx, "POST", c.baseURL+"/api/auth/login", creds)
	if err != nil {
		return "", domain.Internal(err, op, "failed to build request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "error").Inc()
		return "", domain.Unavailable(err, op)
	}
	defer res.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(op, fmt.Sprintf("%d", res.StatusCode)).Inc()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", c.errorFromResponse(op, res)
	}

	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			metrics.LoginsTotal.Inc()
			return cookie.Value, nil
		}
	}

	return "", domain.Internal(nil, op, "upstream login returned no session cookie")
}

// Logout ends the upstream session for the token in ctx. Best-effort: the
// caller clears its own cookie and proceeds regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	if auth.Token(ctx) == "" {
		return nil
	}
	return c.do(ctx, "api.auth.logout", "POST", "/api/auth/logout", nil, nil)
}

// Signup registers a new account. Duplicate usernames and emails surface as
// conflict errors carrying the upstream message.
func (c *Client) Signup(ctx context.Context, params domain.SignupParams) error {
	if err := c.do(ctx, "api.auth.signup", "POST", "/api/auth/signup", params, nil); err != nil {
		return err
	}
	metrics.SignupsTotal.Inc()
	return nil
}
