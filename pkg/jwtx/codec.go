package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret we are willing to sign with.
const MinSecretLength = 32

var (
	ErrMissingSecret   = errors.New("jwtx: signing secret is not configured")
	ErrWeakSecret      = errors.New("jwtx: signing secret is too short")
	ErrMissingIssuer   = errors.New("jwtx: issuer is not configured")
	ErrMissingAudience = errors.New("jwtx: audience is not configured")
)

// Options configures a Codec. Secret, Issuer and Audience are required;
// everything else has a usable default.
type Options struct {
	Secret   []byte
	Issuer   string
	Audience string

	// TTL is the lifetime of tokens produced by Sign (default: 7 days).
	TTL time.Duration

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now is used for exp/nbf checks. Tests override it.
	Now func() time.Time
}

// Codec signs and verifies session tokens. Exactly one algorithm (HS256) is
// ever accepted, anything else is rejected before a key is handed out.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// NewCodec builds a Codec. An empty secret, issuer or audience is an error
// and callers are expected to abort startup on it. Verify always pins both.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if len(opts.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	if opts.Issuer == "" {
		return nil, ErrMissingIssuer
	}
	if opts.Audience == "" {
		return nil, ErrMissingAudience
	}

	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	secret := make([]byte, len(opts.Secret))
	copy(secret, opts.Secret)

	return &Codec{
		secret:   secret,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
		leeway:   opts.Leeway,
		now:      opts.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(), // done below so we return our own sentinels
		),
	}, nil
}

// TTL is the lifetime of freshly signed tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign issues a session token for the given user and role.
func (c *Codec) Sign(userID, role string, now time.Time) (string, error) {
	claims := NewSessionClaims(userID, role, c.ttl, c.issuer, c.audience, now)
	if err := claims.Validate(); err != nil {
		return "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify validates the token string and returns its claims. The returned
// error always wraps one of the package sentinels so callers can use
// errors.Is to classify it.
func (c *Codec) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	token, err := c.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		// Also enforced by WithValidMethods.
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrAlgMismatch
		}
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, classify(token, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(c.audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(c.now().UTC(), c.leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify maps golang-jwt errors onto our sentinels.
func classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch):
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Unknown "alg" header values end up here.
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		if token != nil && token.Method != jwt.SigningMethodHS256 {
			return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
