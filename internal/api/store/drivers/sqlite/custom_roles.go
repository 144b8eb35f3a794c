package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
)

type customRolesRepo struct {
	q dbtx
}

func (r *customRolesRepo) ActiveRoleExists(ctx context.Context, key string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM custom_roles WHERE key = ? AND is_active = 1`, key,
	).Scan(&n)
	return n > 0, err
}

func (r *customRolesRepo) PermissionGranted(ctx context.Context, roleKey, permissionKey string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM custom_role_permissions
		 WHERE role_key = ? AND permission_key = ? AND is_granted = 1`,
		roleKey, permissionKey,
	).Scan(&n)
	return n > 0, err
}

func (r *customRolesRepo) ListActiveRoles(ctx context.Context) ([]domain.CustomRole, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT key, name_ar, name_en, level, is_active, created_at
		 FROM custom_roles WHERE is_active = 1 ORDER BY level DESC, key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomRole
	for rows.Next() {
		var cr domain.CustomRole
		if err := rows.Scan(&cr.Key, &cr.NameAr, &cr.NameEn, &cr.Level, &cr.IsActive, &cr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *customRolesRepo) CreateRole(ctx context.Context, cr domain.CustomRole) error {
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO custom_roles (key, name_ar, name_en, level, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cr.Key, cr.NameAr, cr.NameEn, cr.Level, cr.IsActive, cr.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *customRolesRepo) GrantPermission(ctx context.Context, p domain.RolePermission) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO custom_role_permissions (role_key, permission_key, is_granted)
		 VALUES (?, ?, ?)
		 ON CONFLICT (role_key, permission_key) DO UPDATE SET is_granted = excluded.is_granted`,
		p.RoleKey, p.PermissionKey, p.IsGranted,
	)
	return err
}
