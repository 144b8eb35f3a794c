package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/aqar/pkg/rbac"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

// RequireRoles lets through universal roles and the roles listed. Custom
// roles never pass this check; guard their routes with RequirePermission.
func RequireRoles(authz *rbac.Authorizer, roles ...rbac.Role) Middleware {
	msg := MsgAdminOnly
	if len(roles) > 0 {
		msg = RoleRestricted(authz.Registry, roles)
	}
	return requireRoles(authz, roles, msg)
}

// RequireAdmin lets through universal roles only.
func RequireAdmin(authz *rbac.Authorizer) Middleware {
	return requireRoles(authz, nil, MsgAdminOnly)
}

func requireRoles(authz *rbac.Authorizer, roles []rbac.Role, msg Message) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, MsgUnauthorized, "")
				return
			}

			if d := authz.CheckRoles(id.Role, roles); !d.Allowed() {
				slogx.FromContext(r.Context()).Warn("role check denied",
					"decision", d.String(),
					"allowed", roles,
				)
				WriteError(w, http.StatusForbidden, msg, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission lets through callers whose role grants permission,
// statically or through the custom-role store. It panics on an empty
// permission since that is a routing mistake.
func RequirePermission(authz *rbac.Authorizer, permission string) Middleware {
	if permission == "" {
		panic("httpx: RequirePermission with empty permission")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := IdentityFrom(ctx)
			if !ok {
				WriteError(w, http.StatusUnauthorized, MsgUnauthorized, "")
				return
			}

			if d := authz.CheckPermission(ctx, id.Role, permission); !d.Allowed() {
				slogx.FromContext(ctx).Warn("permission check denied",
					"decision", d.String(),
					"permission", permission,
				)
				WriteError(w, http.StatusForbidden, MsgPermissionDenied, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
