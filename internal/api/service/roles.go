package service

import (
	"context"

	"github.com/aussiebroadwan/aqar/internal/api/store"
	"github.com/aussiebroadwan/aqar/pkg/rbac"
)

// RoleView is a role as shown to administrators.
type RoleView struct {
	Key         string     `json:"key"`
	Level       int        `json:"level"`
	Label       rbac.Label `json:"label"`
	Permissions []string   `json:"permissions,omitempty"`
	Custom      bool       `json:"custom"`
}

type RolesService struct {
	Store    store.Store
	Registry *rbac.Registry
}

// ListAll returns the built-in roles in registry order followed by the
// active custom roles.
func (s *RolesService) ListAll(ctx context.Context) ([]RoleView, error) {
	builtin := s.Registry.Roles()
	out := make([]RoleView, 0, len(builtin))

	for _, role := range builtin {
		patterns := s.Registry.PermissionsOf(string(role))
		perms := make([]string, len(patterns))
		for i, p := range patterns {
			perms[i] = p.String()
		}
		out = append(out, RoleView{
			Key:         string(role),
			Level:       s.Registry.LevelOf(string(role)),
			Label:       s.Registry.Label(role),
			Permissions: perms,
		})
	}

	custom, err := s.Store.CustomRoles().ListActiveRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, cr := range custom {
		out = append(out, RoleView{
			Key:    cr.Key,
			Level:  cr.Level,
			Label:  rbac.Label{Ar: cr.NameAr, En: cr.NameEn},
			Custom: true,
		})
	}
	return out, nil
}
