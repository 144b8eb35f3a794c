package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose sub-repositories per table group.
type Store interface {
	Users() Users
	CustomRoles() CustomRoles

	ApplyMigrations() error

	// WithTx runs fn inside a transaction. fn's error rolls it back,
	// nil commits. The Store handed to fn must not be used after fn returns.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByOAuthSubject finds the account explicitly linked to an
	// external identity.
	GetUserByOAuthSubject(ctx context.Context, subject string) (domain.User, error)

	// CreateUser inserts a user (id is provided by the caller via ULID).
	// Duplicate email or subject yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns users ordered by creation, oldest first.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	// UpdateUserRole sets role and bumps updated_at. ErrNotFound when the
	// user does not exist.
	UpdateUserRole(ctx context.Context, userID, role string) error
}

// CustomRoles is the administrator-defined role table. The request path
// only reads it; the write methods exist for seeding and tooling.
type CustomRoles interface {
	ActiveRoleExists(ctx context.Context, key string) (bool, error)
	PermissionGranted(ctx context.Context, roleKey, permissionKey string) (bool, error)

	ListActiveRoles(ctx context.Context) ([]domain.CustomRole, error)

	CreateRole(ctx context.Context, r domain.CustomRole) error

	// GrantPermission upserts the grant row for roleKey+permissionKey.
	GrantPermission(ctx context.Context, p domain.RolePermission) error
}
