package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

// TokenCookie is the cookie carrying the session token. It wins over an
// Authorization header when both are sent.
const TokenCookie = "token"

// ErrNoCredentials is returned by a FallbackAuthenticator when the request
// does not carry its kind of session at all.
var ErrNoCredentials = errors.New("httpx: no credentials")

// FallbackAuthenticator is a second, independent session scheme consulted by
// the combined variant when the token path fails.
type FallbackAuthenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Principal, error)
}

// Authentication outcomes reported to an observer.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAnonymous     = "anonymous"
	OutcomeFallback      = "fallback"
	OutcomeRejected      = "rejected"
)

// Authenticator builds the authentication middleware variants. Codec and
// Registry are required; Fallback is only used by Combined.
type Authenticator struct {
	Codec    jwtx.Verifier
	Registry *rbac.Registry
	Fallback FallbackAuthenticator

	// Observe, when set, is called once per request with the variant name
	// and the outcome.
	Observe func(variant, outcome string)
}

// NewAuthenticator returns an Authenticator without a fallback scheme.
func NewAuthenticator(codec jwtx.Verifier, reg *rbac.Registry) *Authenticator {
	return &Authenticator{Codec: codec, Registry: reg}
}

// Strict rejects every request that does not carry a valid token.
func (a *Authenticator) Strict() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, reject := a.fromToken(r)
			if reject != nil {
				a.observe("strict", OutcomeRejected)
				WriteError(w, http.StatusUnauthorized, *reject, "")
				return
			}
			a.observe("strict", OutcomeAuthenticated)
			next.ServeHTTP(w, a.attach(r, id))
		})
	}
}

// Optional attaches an identity when the token is valid and otherwise lets
// the request through anonymously.
func (a *Authenticator) Optional() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, reject := a.fromToken(r)
			if reject != nil {
				a.observe("optional", OutcomeAnonymous)
				next.ServeHTTP(w, r)
				return
			}
			a.observe("optional", OutcomeAuthenticated)
			next.ServeHTTP(w, a.attach(r, id))
		})
	}
}

// Combined tries the token first and then the fallback session scheme. It
// never lets an unauthenticated request through, and every rejection uses
// the generic unauthorized message.
func (a *Authenticator) Combined() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, reject := a.fromToken(r); reject == nil {
				a.observe("combined", OutcomeAuthenticated)
				next.ServeHTTP(w, a.attach(r, id))
				return
			}

			id, ok := a.fromFallback(r)
			if !ok {
				a.observe("combined", OutcomeRejected)
				WriteError(w, http.StatusUnauthorized, MsgUnauthorized, "")
				return
			}
			a.observe("combined", OutcomeFallback)
			next.ServeHTTP(w, a.attach(r, id))
		})
	}
}

// fromToken verifies the request token. A non-nil message is the rejection a
// strict caller should send; the precise failure is only logged.
func (a *Authenticator) fromToken(r *http.Request) (Identity, *Message) {
	log := slogx.FromContext(r.Context())

	raw := TokenFromRequest(r)
	if raw == "" {
		return Identity{}, &MsgUnauthorized
	}

	claims, err := a.Codec.Verify(raw)
	if err != nil {
		log.Warn("token verification failed", "kind", jwtx.Kind(err))
		if errors.Is(err, jwtx.ErrExpired) {
			return Identity{}, &MsgSessionExpired
		}
		return Identity{}, &MsgInvalidSession
	}

	if err := claims.Validate(); err != nil {
		log.Warn("token claims rejected", "kind", jwtx.Kind(err))
		return Identity{}, &MsgInvalidClaims
	}

	return a.identity(claims.UserID, claims.Role), nil
}

func (a *Authenticator) fromFallback(r *http.Request) (Identity, bool) {
	if a.Fallback == nil {
		return Identity{}, false
	}
	log := slogx.FromContext(r.Context())

	p, err := a.Fallback.Authenticate(r.Context(), r)
	switch {
	case errors.Is(err, ErrNoCredentials):
		return Identity{}, false
	case err != nil:
		log.Warn("fallback session rejected", "err", err)
		return Identity{}, false
	case p.UserID == "" || p.Role == "":
		log.Warn("fallback session resolved to an incomplete principal")
		return Identity{}, false
	}
	return a.identity(p.UserID, p.Role), true
}

func (a *Authenticator) identity(userID, role string) Identity {
	return Identity{ID: userID, Role: role, RoleLevel: a.Registry.LevelOf(role)}
}

func (a *Authenticator) attach(r *http.Request, id Identity) *http.Request {
	ctx := WithIdentity(r.Context(), id)
	ctx = slogx.With(ctx, "user_id", id.ID, "role", id.Role)
	return r.WithContext(ctx)
}

func (a *Authenticator) observe(variant, outcome string) {
	if a.Observe != nil {
		a.Observe(variant, outcome)
	}
}

// TokenFromRequest returns the session token from the token cookie, or from
// an Authorization Bearer header when no cookie is set.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	tok, _ := BearerToken(r)
	return tok
}

// BearerToken extracts the credentials of an Authorization Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
