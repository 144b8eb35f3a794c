package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/aqar/internal/api/domain"
	"github.com/jackc/pgx/v5"
)

type customRolesRepo struct {
	q dbtx
}

func (r *customRolesRepo) ActiveRoleExists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM custom_roles WHERE key = $1 AND is_active)`, key,
	).Scan(&ok)
	return ok, err
}

func (r *customRolesRepo) PermissionGranted(ctx context.Context, roleKey, permissionKey string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM custom_role_permissions
		   WHERE role_key = $1 AND permission_key = $2 AND is_granted
		 )`,
		roleKey, permissionKey,
	).Scan(&ok)
	return ok, err
}

func (r *customRolesRepo) ListActiveRoles(ctx context.Context) ([]domain.CustomRole, error) {
	rows, err := r.q.Query(ctx,
		`SELECT key, name_ar, name_en, level, is_active, created_at
		 FROM custom_roles WHERE is_active ORDER BY level DESC, key`,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CustomRole, error) {
		var cr domain.CustomRole
		err := row.Scan(&cr.Key, &cr.NameAr, &cr.NameEn, &cr.Level, &cr.IsActive, &cr.CreatedAt)
		return cr, err
	})
}

func (r *customRolesRepo) CreateRole(ctx context.Context, cr domain.CustomRole) error {
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO custom_roles (key, name_ar, name_en, level, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cr.Key, cr.NameAr, cr.NameEn, cr.Level, cr.IsActive, cr.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *customRolesRepo) GrantPermission(ctx context.Context, p domain.RolePermission) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO custom_role_permissions (role_key, permission_key, is_granted)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (role_key, permission_key) DO UPDATE SET is_granted = EXCLUDED.is_granted`,
		p.RoleKey, p.PermissionKey, p.IsGranted,
	)
	return err
}
