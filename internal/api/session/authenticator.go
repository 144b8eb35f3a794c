package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
)

// Authenticator plugs the Redis session into the combined authentication
// middleware.
type Authenticator struct {
	Provider *RedisProvider
	Linker   *Linker
}

var _ httpx.FallbackAuthenticator = (*Authenticator)(nil)

func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (httpx.Principal, error) {
	s, err := a.Provider.Load(ctx, r)
	if errors.Is(err, ErrNoSession) {
		return httpx.Principal{}, httpx.ErrNoCredentials
	}
	if err != nil {
		return httpx.Principal{}, err
	}
	return a.Linker.Link(ctx, s)
}
