package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/internal/api/store/drivers/postgres"
	"github.com/aussiebroadwan/aqar/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres container and returns its DSN.
// Tests are skipped when no container runtime is available.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "aqar",
				"POSTGRES_PASSWORD": "aqar",
				"POSTGRES_DB":       "aqar",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://aqar:aqar@%s:%s/aqar?sslmode=disable", host, port.Port())
}

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	st, err := postgres.NewStore(context.Background(), startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, st.ApplyMigrations())
		require.NoError(t, st.Ping(ctx))
	})

	u := domain.User{
		ID:           idx.New().String(),
		Email:        "Omar@example.com",
		Name:         "Omar",
		PasswordHash: "$argon2id$dummy",
		Role:         "finance_admin",
		OAuthSubject: "google|777",
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("lookups", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "omar@EXAMPLE.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		got, err = st.Users().GetUserByOAuthSubject(ctx, "google|777")
		require.NoError(t, err)
		require.Equal(t, "finance_admin", got.Role)

		_, err = st.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Email: "OMAR@example.com", Role: "user"}
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update role", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateUserRole(ctx, u.ID, "admin"))
		require.ErrorIs(t, st.Users().UpdateUserRole(ctx, "missing", "user"), store.ErrNotFound)

		list, err := st.Users().ListUsers(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "admin", list[0].Role)
	})

	t.Run("custom roles", func(t *testing.T) {
		roles := st.CustomRoles()
		require.NoError(t, roles.CreateRole(ctx, domain.CustomRole{
			Key: "marketing_lead", NameAr: "قائد التسويق", NameEn: "Marketing Lead", Level: 50, IsActive: true,
		}))
		require.NoError(t, roles.GrantPermission(ctx, domain.RolePermission{
			RoleKey: "marketing_lead", PermissionKey: "elite:view", IsGranted: true,
		}))

		ok, err := roles.ActiveRoleExists(ctx, "marketing_lead")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = roles.PermissionGranted(ctx, "marketing_lead", "elite:view")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = roles.PermissionGranted(ctx, "marketing_lead", "elite:edit")
		require.NoError(t, err)
		require.False(t, ok)

		active, err := roles.ListActiveRoles(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		id := idx.New().String()
		err := st.WithTx(ctx, func(tx store.Store) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{ID: id, Email: "tx@x.com", Role: "user"}))
			return store.ErrNotFound
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Users().GetUserByID(ctx, id)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
