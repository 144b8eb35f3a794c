package httpx

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/cryptox"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

// CSRF defaults.
const (
	DefaultCSRFCookie     = "csrf_token"
	DefaultCSRFHeader     = "x-csrf-token"
	DefaultCSRFTokenBytes = 32
	DefaultCSRFTTL        = 24 * time.Hour
)

// CSRFConfig configures the double-submit cookie guard.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	TokenBytes int           // random bytes per token, hex encoded
	TTL        time.Duration // cookie Max-Age
	Secure     bool          // set in production
	Path       string

	// OnReject, when set, is called with the rejection code.
	OnReject func(code string)
}

// CSRFGuard implements double-submit cookie verification. The token is not
// bound to the caller's identity.
type CSRFGuard struct {
	cfg  CSRFConfig
	mint func(size int) (string, error)
}

// NewCSRFGuard fills zero fields of cfg with the defaults.
func NewCSRFGuard(cfg CSRFConfig) *CSRFGuard {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookie
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeader
	}
	if cfg.TokenBytes <= 0 {
		cfg.TokenBytes = DefaultCSRFTokenBytes
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCSRFTTL
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &CSRFGuard{cfg: cfg, mint: cryptox.RandomHex}
}

// Protect verifies the token pair on state-changing methods and mints the
// cookie on safe ones.
func (g *CSRFGuard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.serve(w, r, next)
	})
}

// ProtectLite is Protect, except requests carrying an Authorization Bearer
// header skip the guard entirely. A browser cannot attach that header to a
// cross-site request on its own.
func (g *CSRFGuard) ProtectLite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := BearerToken(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		g.serve(w, r, next)
	})
}

func (g *CSRFGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	cookie := g.cookieValue(r)

	if isSafeMethod(r.Method) {
		if cookie == "" {
			cookie = g.issue(w, r)
		}
		next.ServeHTTP(w, withCSRFToken(r, cookie))
		return
	}

	header := r.Header.Get(g.cfg.HeaderName)
	if cookie == "" || header == "" {
		g.reject(w, r, CodeCSRFMissing, MsgCSRFMissing)
		return
	}
	if !tokensEqual(cookie, header) {
		g.reject(w, r, CodeCSRFMismatch, MsgCSRFMismatch)
		return
	}

	next.ServeHTTP(w, withCSRFToken(r, cookie))
}

// issue mints and sets a fresh cookie. Safe requests are never rejected, so
// a failing random source only costs the cookie.
func (g *CSRFGuard) issue(w http.ResponseWriter, r *http.Request) string {
	tok, err := g.mint(g.cfg.TokenBytes)
	if err != nil {
		slogx.FromContext(r.Context()).Error("csrf token generation failed", "err", err)
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    tok,
		Path:     g.cfg.Path,
		MaxAge:   int(g.cfg.TTL.Seconds()),
		Expires:  time.Now().Add(g.cfg.TTL),
		Secure:   g.cfg.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
	return tok
}

func (g *CSRFGuard) reject(w http.ResponseWriter, r *http.Request, code string, msg Message) {
	slogx.FromContext(r.Context()).Warn("csrf check failed", "code", code)
	if g.cfg.OnReject != nil {
		g.cfg.OnReject(code)
	}
	WriteError(w, http.StatusForbidden, msg, code)
}

func (g *CSRFGuard) cookieValue(r *http.Request) string {
	c, err := r.Cookie(g.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func withCSRFToken(r *http.Request, tok string) *http.Request {
	if tok == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), ctxKeyCSRFToken, tok))
}

// tokensEqual compares fixed-size digests so neither the length nor the
// content of the submitted value shows up in the timing.
func tokensEqual(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
