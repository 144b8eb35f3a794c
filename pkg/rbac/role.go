package rbac

// Role is one of the built-in role keys. The set is closed: anything else a
// token carries is either an administrator-defined custom role (resolved
// through the Resolver) or garbage.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleAdmin           Role = "admin"
	RoleFinanceAdmin    Role = "finance_admin"
	RoleSupportAdmin    Role = "support_admin"
	RoleContentAdmin    Role = "content_admin"
	RoleAmbassadorAdmin Role = "ambassador_admin"
	RoleUser            Role = "user"
)

// UniversalLevel is the level of the roles that bypass every check.
const UniversalLevel = 100

// Label is a bilingual display name.
type Label struct {
	Ar string `json:"ar"`
	En string `json:"en"`
}

var builtinRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleFinanceAdmin,
	RoleSupportAdmin,
	RoleContentAdmin,
	RoleAmbassadorAdmin,
	RoleUser,
}

// BuiltinRoles returns every built-in role, highest privilege first.
func BuiltinRoles() []Role {
	out := make([]Role, len(builtinRoles))
	copy(out, builtinRoles)
	return out
}

// ParseRole reports whether s names a built-in role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleAdmin, RoleFinanceAdmin, RoleSupportAdmin,
		RoleContentAdmin, RoleAmbassadorAdmin, RoleUser:
		return r, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }
