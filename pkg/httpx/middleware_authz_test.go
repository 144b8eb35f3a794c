package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/stretchr/testify/require"
)

func newAuthz(store rbac.CustomRoleStore) *rbac.Authorizer {
	return rbac.NewAuthorizer(rbac.DefaultRegistry(), rbac.NewResolver(store))
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	authz := newAuthz(nil)

	for name, mw := range map[string]httpx.Middleware{
		"roles":      httpx.RequireRoles(authz, rbac.RoleUser),
		"admin":      httpx.RequireAdmin(authz),
		"permission": httpx.RequirePermission(authz, "users:view"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(httpx.Chain(http.NotFoundHandler(), mw), httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "غير مصرح", decodeError(t, rec).Error)
		})
	}
}

func TestRequireRolesListsAllowedRoles(t *testing.T) {
	authz := newAuthz(nil)
	h := httpx.Chain(http.NotFoundHandler(), httpx.RequireRoles(authz, rbac.RoleFinanceAdmin))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "content_admin")
	rec := serve(h, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	require.Contains(t, body.Error, "إدارة المالية")
	require.Contains(t, body.ErrorEn, "Finance Admin")
}

func TestRequireRolesMultipleLabels(t *testing.T) {
	authz := newAuthz(nil)
	h := httpx.Chain(http.NotFoundHandler(), httpx.RequireRoles(authz, rbac.RoleFinanceAdmin, rbac.RoleSupportAdmin))

	rec := serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "user"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, decodeError(t, rec).ErrorEn, "Finance Admin, Support Admin")
}

func TestRequireRoles(t *testing.T) {
	store := &roleStore{active: map[string]bool{"marketing_lead": true}}
	authz := newAuthz(store)

	tests := []struct {
		name string
		role string
		want int
	}{
		{"member", "finance_admin", http.StatusOK},
		{"non member", "support_admin", http.StatusForbidden},
		{"admin bypass", "admin", http.StatusOK},
		{"super admin bypass", "super_admin", http.StatusOK},
		{"custom role never passes", "marketing_lead", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			h := httpx.Chain(got.handler(), httpx.RequireRoles(authz, rbac.RoleFinanceAdmin))
			rec := serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", tt.role))

			require.Equal(t, tt.want, rec.Code)
			require.Equal(t, tt.want == http.StatusOK, got.called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	authz := newAuthz(nil)
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), httpx.RequireAdmin(authz))

	require.Equal(t, http.StatusNoContent, serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "admin")).Code)

	rec := serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "finance_admin"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, httpx.MsgAdminOnly.En, decodeError(t, rec).ErrorEn)
}

func TestRequirePermission(t *testing.T) {
	store := &roleStore{granted: map[string]bool{
		"marketing_lead|elite:view": true,
		"user|users:view":           true,
	}}
	authz := newAuthz(store)

	tests := []struct {
		name string
		role string
		perm string
		want int
	}{
		{"support admin prefix grant", "support_admin", "support:view", http.StatusOK},
		{"support admin denied plans", "support_admin", "plans:edit", http.StatusForbidden},
		{"admin bypass", "admin", "plans:edit", http.StatusOK},
		{"custom role grant", "marketing_lead", "elite:view", http.StatusOK},
		{"custom role miss", "marketing_lead", "elite:edit", http.StatusForbidden},
		{"user does not consult store", "user", "users:view", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}), httpx.RequirePermission(authz, tt.perm))
			rec := serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", tt.role))

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				body := decodeError(t, rec)
				require.Equal(t, httpx.MsgPermissionDenied.Ar, body.Error)
				require.Equal(t, httpx.MsgPermissionDenied.En, body.ErrorEn)
			}
		})
	}
}

func TestRequirePermissionStoreErrorIsForbidden(t *testing.T) {
	store := &roleStore{
		granted: map[string]bool{"marketing_lead|elite:view": true},
		err:     errors.New("connection refused"),
	}
	h := httpx.Chain(http.NotFoundHandler(), httpx.RequirePermission(newAuthz(store), "elite:view"))

	rec := serve(h, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "marketing_lead"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, httpx.MsgPermissionDenied.En, decodeError(t, rec).ErrorEn)
}

func TestRequirePermissionEmptyPanics(t *testing.T) {
	require.Panics(t, func() { httpx.RequirePermission(newAuthz(nil), "") })
}
