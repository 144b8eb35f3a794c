package rbac

import (
	"fmt"
)

// RoleDefinition describes a built-in role for NewRegistry.
type RoleDefinition struct {
	Role        Role
	Level       int
	Label       Label
	Permissions []string
}

type roleEntry struct {
	level    int
	label    Label
	patterns []Pattern
}

// Registry is the static role table. It is immutable once built, so a
// single instance is shared by every request without locking.
type Registry struct {
	roles map[Role]roleEntry
	order []Role
}

// NewRegistry validates defs and builds a Registry.
func NewRegistry(defs []RoleDefinition) (*Registry, error) {
	r := &Registry{
		roles: make(map[Role]roleEntry, len(defs)),
		order: make([]Role, 0, len(defs)),
	}

	for _, def := range defs {
		if _, ok := ParseRole(string(def.Role)); !ok {
			return nil, fmt.Errorf("rbac: unknown built-in role %q", def.Role)
		}
		if _, dup := r.roles[def.Role]; dup {
			return nil, fmt.Errorf("rbac: role %q defined twice", def.Role)
		}

		patterns := make([]Pattern, 0, len(def.Permissions))
		for _, raw := range def.Permissions {
			p, err := ParsePattern(raw)
			if err != nil {
				return nil, fmt.Errorf("rbac: role %q: %w", def.Role, err)
			}
			patterns = append(patterns, p)
		}

		r.roles[def.Role] = roleEntry{level: def.Level, label: def.Label, patterns: patterns}
		r.order = append(r.order, def.Role)
	}

	return r, nil
}

// DefaultDefinitions is the marketplace's built-in role table.
func DefaultDefinitions() []RoleDefinition {
	return []RoleDefinition{
		{
			Role:        RoleSuperAdmin,
			Level:       UniversalLevel,
			Label:       Label{Ar: "المدير العام", En: "Super Admin"},
			Permissions: []string{"*"},
		},
		{
			Role:        RoleAdmin,
			Level:       UniversalLevel,
			Label:       Label{Ar: "مدير النظام", En: "Admin"},
			Permissions: []string{"*"},
		},
		{
			Role:  RoleFinanceAdmin,
			Level: 80,
			Label: Label{Ar: "إدارة المالية", En: "Finance Admin"},
			Permissions: []string{
				"finance:*", "plans:*", "subscriptions:*", "payments:view", "reports:view",
			},
		},
		{
			Role:  RoleSupportAdmin,
			Level: 70,
			Label: Label{Ar: "إدارة الدعم الفني", En: "Support Admin"},
			Permissions: []string{
				"support:*", "complaints:*", "messages:*", "users:view",
			},
		},
		{
			Role:  RoleContentAdmin,
			Level: 60,
			Label: Label{Ar: "إدارة المحتوى", En: "Content Admin"},
			Permissions: []string{
				"properties:*", "elite:*", "content:*", "users:view",
			},
		},
		{
			Role:        RoleAmbassadorAdmin,
			Level:       60,
			Label:       Label{Ar: "إدارة السفراء", En: "Ambassador Admin"},
			Permissions: []string{"ambassador:*", "users:view"},
		},
		{
			Role:        RoleUser,
			Level:       10,
			Label:       Label{Ar: "مستخدم", En: "User"},
			Permissions: []string{"profile:*", "properties:create", "support:create"},
		},
	}
}

// DefaultRegistry builds the Registry from DefaultDefinitions. The table is
// compiled in, so a failure here is a programming error.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) lookup(role string) (roleEntry, bool) {
	key, ok := ParseRole(role)
	if !ok {
		return roleEntry{}, false
	}
	e, ok := r.roles[key]
	return e, ok
}

// LevelOf returns the numeric level of role, 0 if the role is unknown.
func (r *Registry) LevelOf(role string) int {
	e, _ := r.lookup(role)
	return e.level
}

// PermissionsOf returns the patterns granted to role. Unknown roles get an
// empty slice. The returned slice is a copy.
func (r *Registry) PermissionsOf(role string) []Pattern {
	e, ok := r.lookup(role)
	if !ok {
		return []Pattern{}
	}
	out := make([]Pattern, len(e.patterns))
	copy(out, e.patterns)
	return out
}

// Known reports whether role is defined in this registry.
func (r *Registry) Known(role string) bool {
	_, ok := r.lookup(role)
	return ok
}

// IsUniversal reports whether role bypasses every role-set and permission
// check. Only super_admin and admin qualify.
func (r *Registry) IsUniversal(role string) bool {
	key, ok := ParseRole(role)
	if !ok {
		return false
	}
	return key == RoleSuperAdmin || key == RoleAdmin
}

// Grants reports whether the static patterns of role grant permission.
func (r *Registry) Grants(role, permission string) bool {
	e, ok := r.lookup(role)
	if !ok {
		return false
	}
	for _, p := range e.patterns {
		if p.Matches(permission) {
			return true
		}
	}
	return false
}

// Label returns the display name for role, falling back to the raw key.
func (r *Registry) Label(role Role) Label {
	if e, ok := r.roles[role]; ok {
		return e.label
	}
	return Label{Ar: string(role), En: string(role)}
}

// Roles returns the defined roles in definition order.
func (r *Registry) Roles() []Role {
	out := make([]Role, len(r.order))
	copy(out, r.order)
	return out
}
