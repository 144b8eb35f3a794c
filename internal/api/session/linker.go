package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

// ErrNotLinked means the external identity maps to no local account.
var ErrNotLinked = errors.New("session: no linked account")

// Linker maps an external identity onto a local user account.
type Linker struct {
	Users store.Users

	// EmailLinking allows matching on email when no account carries the
	// subject. Email is only as trustworthy as the OAuth provider's
	// verification of it.
	EmailLinking bool
}

// Link resolves s to a principal. Store failures are returned as errors and
// never produce a principal.
func (l *Linker) Link(ctx context.Context, s Session) (httpx.Principal, error) {
	log := slogx.FromContext(ctx)

	u, err := l.Users.GetUserByOAuthSubject(ctx, s.Subject)
	switch {
	case err == nil:
		return principal(u), nil
	case !errors.Is(err, store.ErrNotFound):
		log.Error("oauth subject lookup failed", slog.Any("error", err))
		return httpx.Principal{}, err
	}

	if !l.EmailLinking || s.Email == "" {
		return httpx.Principal{}, ErrNotLinked
	}

	u, err = l.Users.GetUserByEmail(ctx, s.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return httpx.Principal{}, ErrNotLinked
	case err != nil:
		log.Error("oauth email lookup failed", slog.Any("error", err))
		return httpx.Principal{}, err
	}

	log.Warn("oauth session linked by email",
		slog.String("user_id", u.ID),
		slog.Bool("subject_present", s.Subject != ""),
	)
	return principal(u), nil
}

func principal(u domain.User) httpx.Principal {
	role := u.Role
	if role == "" {
		role = string(rbac.RoleUser)
	}
	return httpx.Principal{UserID: u.ID, Role: role}
}
