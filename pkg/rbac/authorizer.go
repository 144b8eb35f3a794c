package rbac

import "context"

// Decision is the outcome of an authorization check.
type Decision uint8

const (
	Allow Decision = iota + 1
	DenyRole
	DenyPermission
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyRole:
		return "deny_role"
	case DenyPermission:
		return "deny_permission"
	default:
		return "unknown"
	}
}

// Authorizer combines the static Registry with the custom-role Resolver.
// It holds no mutable state and is safe for concurrent use.
type Authorizer struct {
	Registry *Registry
	Resolver *Resolver
}

// NewAuthorizer returns an Authorizer. A nil resolver disables custom roles.
func NewAuthorizer(reg *Registry, res *Resolver) *Authorizer {
	return &Authorizer{Registry: reg, Resolver: res}
}

// CheckRoles allows universal roles and members of allowed. Custom roles are
// deliberately not resolved here: they have to be authorized through
// CheckPermission.
func (a *Authorizer) CheckRoles(role string, allowed []Role) Decision {
	if a.Registry.IsUniversal(role) {
		return Allow
	}
	for _, r := range allowed {
		if string(r) == role {
			return Allow
		}
	}
	return DenyRole
}

// CheckPermission allows universal roles, then the static patterns of role,
// then (for anything but plain users) the custom-role store. Store failures
// deny.
func (a *Authorizer) CheckPermission(ctx context.Context, role, permission string) Decision {
	if a.Registry.IsUniversal(role) {
		return Allow
	}
	if a.Registry.Grants(role, permission) {
		return Allow
	}
	if role == string(RoleUser) {
		return DenyPermission
	}

	res := a.Resolver.HasPermission(ctx, role, permission)
	if res.Err != nil {
		return DenyPermission
	}
	if res.Granted() {
		return Allow
	}
	return DenyPermission
}

// ValidRole reports whether role may be assigned to an account: a built-in
// role or an active custom role. Store failures count as invalid.
func (a *Authorizer) ValidRole(ctx context.Context, role string) bool {
	if a.Registry.Known(role) {
		return true
	}
	return a.Resolver.RoleExists(ctx, role).Granted()
}

// LevelOf resolves the numeric level for an identity. Custom roles have no
// static level and report 0.
func (a *Authorizer) LevelOf(role string) int {
	return a.Registry.LevelOf(role)
}
