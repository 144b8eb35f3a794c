package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/cryptox"
	"github.com/aussiebroadwan/aqar/pkg/jwtx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("role is neither built-in nor an active custom role")
	ErrRoleEscalation     = errors.New("actor may not grant or revoke this role")
)

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// LoginResult is a freshly issued session token and its owner.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type UserService struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Hasher PasswordHasher
	Authz  *rbac.Authorizer
	Now    func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the password and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Burn the same argon2 work as a real check.
		if err := s.burn(password); err != nil {
			return LoginResult{}, err
		}
		l.Info("login for unknown email")
		return LoginResult{}, ErrInvalidCredentials
	case err != nil:
		return LoginResult{}, err
	}

	if u.PasswordHash == "" {
		if err := s.burn(password); err != nil {
			return LoginResult{}, err
		}
		l.Info("login for account without password", slog.String("user_id", u.ID))
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unreadable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	role := u.Role
	if role == "" {
		role = string(rbac.RoleUser)
	}

	now := s.now()
	token, err := s.Codec.Sign(u.ID, role, now)
	if err != nil {
		return LoginResult{}, err
	}

	l.Info("login succeeded", slog.String("user_id", u.ID), slog.String("role", role))
	return LoginResult{Token: token, ExpiresAt: now.Add(s.Codec.TTL()), User: u}, nil
}

// burn verifies password against a throwaway hash. Without a real hash to
// compare against the unknown-email path would answer measurably faster, so
// a failure to build one is returned rather than skipped.
func (s *UserService) burn(password string) error {
	s.dummyMu.Lock()
	if s.dummyHash == "" {
		h, err := s.Hasher.Hash("aqar-timing-equaliser")
		if err != nil {
			s.dummyMu.Unlock()
			return fmt.Errorf("timing hash: %w", err)
		}
		s.dummyHash = h
	}
	dummy := s.dummyHash
	s.dummyMu.Unlock()

	_ = s.Hasher.Verify(password, dummy)
	return nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListUsers pages through users. limit is clamped to [1, MaxPageSize].
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)

	users, err := s.Store.Users().ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// mayChangeRole guards the universal roles. Only a universal actor may grant
// or revoke one, and super_admin is reserved to super_admin actors.
func mayChangeRole(reg *rbac.Registry, actor, current, next string) bool {
	superAdmin := string(rbac.RoleSuperAdmin)
	if (current == superAdmin || next == superAdmin) && actor != superAdmin {
		return false
	}
	if (reg.IsUniversal(current) || reg.IsUniversal(next)) && !reg.IsUniversal(actor) {
		return false
	}
	return true
}

// AssignRole changes userID's role on behalf of actorRole. The new role must
// be built-in or an active custom role.
func (s *UserService) AssignRole(ctx context.Context, actorRole, userID, role string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if !s.Authz.ValidRole(ctx, role) {
		return domain.User{}, ErrInvalidRole
	}

	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Store) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if !mayChangeRole(s.Authz.Registry, actorRole, u.Role, role) {
			return ErrRoleEscalation
		}

		if err := tx.Users().UpdateUserRole(ctx, userID, role); err != nil {
			return err
		}
		updated, err = tx.Users().GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	l.Info("role assigned",
		slog.String("target_user_id", userID),
		slog.String("new_role", role),
	)
	return updated, nil
}
