package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/stretchr/testify/require"
)

func newAuthorizer(store rbac.CustomRoleStore) *rbac.Authorizer {
	return rbac.NewAuthorizer(rbac.DefaultRegistry(), rbac.NewResolver(store))
}

func TestCheckRoles(t *testing.T) {
	authz := newAuthorizer(nil)

	require.Equal(t, rbac.Allow, authz.CheckRoles("finance_admin", []rbac.Role{rbac.RoleFinanceAdmin}))
	require.Equal(t, rbac.DenyRole, authz.CheckRoles("content_admin", []rbac.Role{rbac.RoleFinanceAdmin}))
	require.Equal(t, rbac.DenyRole, authz.CheckRoles("user", nil))
	require.Equal(t, rbac.DenyRole, authz.CheckRoles("", []rbac.Role{rbac.RoleUser}))
}

func TestCheckRolesIgnoresCustomRoles(t *testing.T) {
	store := newMemStore()
	store.active["marketing_lead"] = true
	authz := newAuthorizer(store)

	require.Equal(t, rbac.DenyRole, authz.CheckRoles("marketing_lead", []rbac.Role{rbac.RoleContentAdmin}))
	require.Zero(t, store.calls.Load())
}

func TestUniversalRolesAlwaysAllowed(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("store is down")
	authz := newAuthorizer(store)
	ctx := context.Background()

	sets := [][]rbac.Role{nil, {}, {rbac.RoleUser}, {rbac.RoleFinanceAdmin, rbac.RoleSupportAdmin}}
	perms := []string{"", "users:view", "plans:edit", "something:never:defined"}

	for _, role := range []string{"admin", "super_admin"} {
		for _, set := range sets {
			require.Equal(t, rbac.Allow, authz.CheckRoles(role, set))
		}
		for _, perm := range perms {
			require.Equal(t, rbac.Allow, authz.CheckPermission(ctx, role, perm))
		}
	}
	require.Zero(t, store.calls.Load())
}

func TestCheckPermission(t *testing.T) {
	store := newMemStore()
	store.granted["marketing_lead|elite:view"] = true
	store.granted["support_admin|plans:view"] = true
	store.granted["user|users:view"] = true
	authz := newAuthorizer(store)
	ctx := context.Background()

	tests := []struct {
		name string
		role string
		perm string
		want rbac.Decision
	}{
		{"static prefix pattern", "support_admin", "support:view", rbac.Allow},
		{"static miss then store miss", "support_admin", "plans:edit", rbac.DenyPermission},
		{"static miss then store grant", "support_admin", "plans:view", rbac.Allow},
		{"custom role grant", "marketing_lead", "elite:view", rbac.Allow},
		{"custom role miss", "marketing_lead", "elite:edit", rbac.DenyPermission},
		{"user never falls back", "user", "users:view", rbac.DenyPermission},
		{"user static grant", "user", "profile:view", rbac.Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, authz.CheckPermission(ctx, tt.role, tt.perm))
		})
	}
}

func TestCheckPermissionStaticHitSkipsStore(t *testing.T) {
	store := newMemStore()
	authz := newAuthorizer(store)

	require.Equal(t, rbac.Allow, authz.CheckPermission(context.Background(), "finance_admin", "plans:edit"))
	require.Zero(t, store.calls.Load())
}

func TestCheckPermissionStoreErrorDenies(t *testing.T) {
	store := newMemStore()
	store.granted["marketing_lead|elite:view"] = true
	store.err = errors.New("connection reset")
	authz := newAuthorizer(store)

	require.Equal(t, rbac.DenyPermission, authz.CheckPermission(context.Background(), "marketing_lead", "elite:view"))
}

func TestValidRole(t *testing.T) {
	store := newMemStore()
	store.active["marketing_lead"] = true
	authz := newAuthorizer(store)
	ctx := context.Background()

	require.True(t, authz.ValidRole(ctx, "finance_admin"))
	require.True(t, authz.ValidRole(ctx, "marketing_lead"))
	require.False(t, authz.ValidRole(ctx, "ghost"))

	store.err = errors.New("boom")
	require.False(t, authz.ValidRole(ctx, "marketing_lead"))
}

func TestDecisionString(t *testing.T) {
	require.Equal(t, "allow", rbac.Allow.String())
	require.True(t, rbac.Allow.Allowed())
	require.False(t, rbac.DenyRole.Allowed())
	require.False(t, rbac.Decision(0).Allowed())
}
