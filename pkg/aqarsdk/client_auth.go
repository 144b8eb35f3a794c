package aqarsdk

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token. The token cookie lands in the jar
// and the token is also returned. A CSRF token is fetched first when the jar
// has none.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if c.bearer == "" && c.cookie(csrfCookie) == "" {
		if _, err := c.CSRFToken(ctx); err != nil {
			return nil, err
		}
	}

	var out LoginResponse
	if err := c.call(ctx, http.MethodPost, "/v1/auth/login", LoginRequest{Email: email, Password: password}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the token cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusNoContent)
}

// Me reports who the API thinks the caller is. It does not fail for
// anonymous callers.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := c.call(ctx, http.MethodGet, "/v1/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session resolves the caller through either the token or the OAuth session.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodGet, "/v1/auth/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CSRFToken fetches the CSRF token, minting the cookie on first use.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var out CSRFResponse
	if err := c.call(ctx, http.MethodGet, "/v1/auth/csrf", nil, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Token, nil
}
