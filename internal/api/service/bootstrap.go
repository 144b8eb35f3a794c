package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/cryptox"
	"github.com/aussiebroadwan/aqar/pkg/idx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

var ErrBootstrapIncomplete = errors.New("bootstrap admin needs both email and password")

type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// EnsureSuperAdmin creates a super_admin account for email unless one with
// that email already exists. It returns true when an account was created.
func (s *BootstrapService) EnsureSuperAdmin(ctx context.Context, email, password, name string) (bool, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, ErrBootstrapIncomplete
	}

	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return false, err
	}

	id := idx.New().String()
	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         string(rbac.RoleSuperAdmin),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with another instance.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	l.Info("bootstrapped super admin", slog.String("user_id", id))
	return true, nil
}
