package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/internal/api/store/drivers/sqlite"
	"github.com/aussiebroadwan/aqar/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	users := st.Users()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        "Sara@example.com",
		Name:         "Sara",
		PasswordHash: "$argon2id$dummy",
		Role:         "support_admin",
		OAuthSubject: "google|123",
	}
	require.NoError(t, users.CreateUser(ctx, u))

	t.Run("by id", func(t *testing.T) {
		got, err := users.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, "support_admin", got.Role)
		require.Equal(t, "google|123", got.OAuthSubject)
		require.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	})

	t.Run("by email ignores case", func(t *testing.T) {
		got, err := users.GetUserByEmail(ctx, "sara@EXAMPLE.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("by oauth subject", func(t *testing.T) {
		got, err := users.GetUserByOAuthSubject(ctx, "google|123")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		_, err = users.GetUserByOAuthSubject(ctx, "")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := users.GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = users.GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		dup.OAuthSubject = ""
		dup.Email = "SARA@example.com"
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update role", func(t *testing.T) {
		require.NoError(t, users.UpdateUserRole(ctx, u.ID, "content_admin"))
		got, err := users.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "content_admin", got.Role)

		require.ErrorIs(t, users.UpdateUserRole(ctx, "missing", "user"), store.ErrNotFound)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, st.Users().CreateUser(ctx, domain.User{
			ID:        idx.New().String(),
			Email:     email,
			Role:      "user",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, err := st.Users().ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "a@x.com", page[0].Email)

	page, err = st.Users().ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "c@x.com", page[0].Email)
	require.Empty(t, page[0].OAuthSubject)
}

func TestCustomRoles(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	roles := st.CustomRoles()

	require.NoError(t, roles.CreateRole(ctx, domain.CustomRole{
		Key: "marketing_lead", NameAr: "قائد التسويق", NameEn: "Marketing Lead", Level: 50, IsActive: true,
	}))
	require.NoError(t, roles.CreateRole(ctx, domain.CustomRole{
		Key: "retired", NameAr: "متقاعد", NameEn: "Retired", Level: 5, IsActive: false,
	}))
	require.ErrorIs(t, roles.CreateRole(ctx, domain.CustomRole{Key: "retired", NameAr: "x", NameEn: "x"}), store.ErrAlreadyExists)

	ok, err := roles.ActiveRoleExists(ctx, "marketing_lead")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = roles.ActiveRoleExists(ctx, "retired")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = roles.ActiveRoleExists(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, roles.GrantPermission(ctx, domain.RolePermission{RoleKey: "marketing_lead", PermissionKey: "elite:view", IsGranted: true}))
	require.NoError(t, roles.GrantPermission(ctx, domain.RolePermission{RoleKey: "marketing_lead", PermissionKey: "elite:edit", IsGranted: false}))

	ok, err = roles.PermissionGranted(ctx, "marketing_lead", "elite:view")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = roles.PermissionGranted(ctx, "marketing_lead", "elite:edit")
	require.NoError(t, err)
	require.False(t, ok)

	// Revoking flips the existing row.
	require.NoError(t, roles.GrantPermission(ctx, domain.RolePermission{RoleKey: "marketing_lead", PermissionKey: "elite:view", IsGranted: false}))
	ok, err = roles.PermissionGranted(ctx, "marketing_lead", "elite:view")
	require.NoError(t, err)
	require.False(t, ok)

	active, err := roles.ListActiveRoles(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Marketing Lead", active[0].NameEn)
	require.True(t, active[0].IsActive)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	id := idx.New().String()

	err := st.WithTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{ID: id, Email: "tx@x.com", Role: "user"}))
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByID(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.WithTx(ctx, func(tx store.Store) error {
		return tx.Users().CreateUser(ctx, domain.User{ID: id, Email: "tx@x.com", Role: "user"})
	}))
	_, err = st.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
}
