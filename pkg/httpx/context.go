package httpx

import "context"

type ctxKey int

const (
	ctxKeyIdentity ctxKey = iota
	ctxKeyCSRFToken
)

// Identity is the caller resolved for a single request. It is created by the
// authentication middleware and never mutated afterwards.
type Identity struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	RoleLevel int    `json:"roleLevel"`
}

// Principal is what a secondary session scheme resolves to: a local user id
// and the role stored for that user.
type Principal struct {
	UserID string
	Role   string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFrom returns the identity attached by the authentication
// middleware. ok is false for anonymous requests.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}

// CSRFTokenFrom returns the CSRF token in effect for the request, either the
// one the client already holds or the one minted for this response.
func CSRFTokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKeyCSRFToken).(string)
	return tok
}
