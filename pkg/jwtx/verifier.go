package jwtx

import "errors"

// Verifier validates a token and gives you back the claims if it's legit.
// The HTTP middleware depends on this rather than on *Codec so tests can
// swap in a stub.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var _ Verifier = (*Codec)(nil)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Kind returns a short, log-friendly name for a verification error. It is
// for server-side logs only and must never be sent to clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrIssuer):
		return "issuer_mismatch"
	case errors.Is(err, ErrAudience):
		return "audience_mismatch"
	case errors.Is(err, ErrAlgMismatch):
		return "alg_mismatch"
	case errors.Is(err, ErrInvalidSig):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidClaim):
		return "invalid_claims"
	default:
		return "malformed"
	}
}
