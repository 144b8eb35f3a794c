// Package session resolves the secondary, OAuth-backed browser session: a
// session_id cookie pointing at a Redis hash written by the OAuth login flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/aqar/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCookieName = "session_id"
	DefaultKeyPrefix  = "session:"

	fieldSubject = "sub"
	fieldEmail   = "email"
)

// ErrNoSession means the request has no session cookie, or the cookie
// points at nothing.
var ErrNoSession = errors.New("session: no session")

// Session is the external identity recorded by the OAuth login flow.
type Session struct {
	ID      string
	Subject string
	Email   string
}

type RedisProvider struct {
	client     redis.Cmdable
	cookieName string
	keyPrefix  string
}

// NewRedisProvider returns a provider reading the default cookie and key
// layout.
func NewRedisProvider(client redis.Cmdable) *RedisProvider {
	return &RedisProvider{
		client:     client,
		cookieName: DefaultCookieName,
		keyPrefix:  DefaultKeyPrefix,
	}
}

func (p *RedisProvider) CookieName() string { return p.cookieName }

// Ping checks the Redis connection.
func (p *RedisProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisProvider) key(id string) string { return p.keyPrefix + id }

// Load reads the session named by the request cookie.
func (p *RedisProvider) Load(ctx context.Context, r *http.Request) (Session, error) {
	c, err := r.Cookie(p.cookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	return p.Get(ctx, c.Value)
}

// Get reads session id directly.
func (p *RedisProvider) Get(ctx context.Context, id string) (Session, error) {
	fields, err := p.client.HGetAll(ctx, p.key(id)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session: load %s: %w", id, err)
	}

	s := Session{ID: id, Subject: fields[fieldSubject], Email: fields[fieldEmail]}
	if s.Subject == "" && s.Email == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Create stores a new session and returns its id. The OAuth callback is the
// production writer; this exists for tooling and tests.
func (p *RedisProvider) Create(ctx context.Context, subject, email string, ttl time.Duration) (string, error) {
	id, err := cryptox.NewSessionID()
	if err != nil {
		return "", err
	}

	key := p.key(id)
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldSubject, subject, fieldEmail, email)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return id, nil
}

// Destroy removes the session named by the request cookie, if any.
func (p *RedisProvider) Destroy(ctx context.Context, r *http.Request) error {
	c, err := r.Cookie(p.cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	if err := p.client.Del(ctx, p.key(c.Value)).Err(); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	return nil
}
