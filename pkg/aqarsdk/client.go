package aqarsdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

// Client talks to the Aqar API. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	bearer string
}

type Option func(*Client)

// WithBearerToken sends token in an Authorization header instead of relying
// on the cookie jar.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = token }
}

// WithHTTPClient replaces the default client. Without a cookie jar only
// bearer authentication works.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// NewClient returns a client with a fresh cookie jar.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) // only fails on a non-nil options argument

	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
