package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SessionIDBytes is the entropy behind a Redis session id.
const SessionIDBytes = 32

// RandomURLSafe returns n random bytes as unpadded base64url.
func RandomURLSafe(n int) (string, error) {
	b, err := read(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomHex returns n random bytes as 2n lowercase hex characters. CSRF
// cookies use this form.
func RandomHex(n int) (string, error) {
	b, err := read(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSessionID mints an id for a server-side session record.
func NewSessionID() (string, error) {
	return RandomURLSafe(SessionIDBytes)
}

func read(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cryptox: random length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("cryptox: read random: %w", err)
	}
	return b, nil
}
