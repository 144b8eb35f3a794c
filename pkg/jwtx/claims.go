package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a session token issued at login stays valid.
// There is no server-side revocation, logging out only clears the cookie, so
// this is the upper bound on how long a leaked token is usable.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims are the session-token claims shared by the API and the web app.
// The JSON names match what the web client already reads out of the token.
type Claims struct {
	jwt.RegisteredClaims

	// UserID of the authenticated account.
	UserID string `json:"userId"`

	// Role key, either a built-in role (e.g. "finance_admin") or the key of
	// an administrator-defined custom role.
	Role string `json:"role"`
}

// NewSessionClaims builds minimally-correct claims for a login session.
func NewSessionClaims(
	userID, role string,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}
}

// Validate checks the application claims every session must carry.
func (c *Claims) Validate() error {
	if c.UserID == "" || c.Role == "" {
		return ErrInvalidClaim
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks that the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if slices.Contains(c.Audience, expected) {
		return nil
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp and nbf allowing a small grace period
// for clock skew. A token without exp is treated as expired.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil || now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
