package repository

import (
	"context"
	"database/sql"
	"fmt"

	"main/model"
	"main/utils"
)

// RoleRepo resolves the user→role→permission graph. All reads; writes
// are limited to role assignment.
type RoleRepo struct {
	DB *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db}
}

func (r *RoleRepo) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	timer := utils.TrackDBOperation("find", "permissions")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT p.permission_name
		FROM users u
		JOIN user_roles ur ON u.user_id = ur.user_id
		JOIN role_permissions rp ON ur.role_id = rp.role_id
		JOIN permissions p ON rp.permission_id = p.permission_id
		WHERE u.user_id = $1`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "permission_query_failed")
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

func (r *RoleRepo) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	timer := utils.TrackDBOperation("find", "roles")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.role_name
		FROM users u
		JOIN user_roles ur ON u.user_id = ur.user_id
		JOIN roles r ON ur.role_id = r.role_id
		WHERE u.user_id = $1`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "role_query_failed")
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

func (r *RoleRepo) GetUserOrganizations(ctx context.Context, userID string) ([]model.Organization, error) {
	timer := utils.TrackDBOperation("find", "user_organizations")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT o.org_id, o.org_name, COALESCE(r.role_name, '')
		FROM users u
		JOIN user_organizations uo ON u.user_id = uo.user_id
		JOIN organizations o ON uo.org_id = o.org_id
		LEFT JOIN roles r ON uo.role_id = r.role_id
		WHERE u.user_id = $1 AND uo.is_active = TRUE`,
		userID,
	)
	if err != nil {
		utils.TrackError("database", "organization_query_failed")
		return nil, fmt.Errorf("failed to resolve organizations: %w", err)
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var org model.Organization
		if err := rows.Scan(&org.OrgID, &org.OrgName, &org.RoleName); err != nil {
			return nil, fmt.Errorf("failed to scan organization row: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// AssignRole grants a named role to a user. Callers must invalidate
// the permissions cache for the user afterwards.
func (r *RoleRepo) AssignRole(ctx context.Context, userID, roleName string) error {
	timer := utils.TrackDBOperation("insert", "user_roles")
	defer timer.ObserveDuration()

	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, role_id FROM roles WHERE role_name = $2
		ON CONFLICT DO NOTHING`,
		userID, roleName,
	)
	if err != nil {
		utils.TrackError("database", "role_assign_failed")
		return fmt.Errorf("failed to assign role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Either the role name is unknown or the grant already
		// exists; only the former is an error worth reporting.
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM roles WHERE role_name = $1)`, roleName,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to verify role: %w", err)
		}
		if !exists {
			return fmt.Errorf("unknown role %q: %w", roleName, sql.ErrNoRows)
		}
	}
	return nil
}

func (r *RoleRepo) RevokeRole(ctx context.Context, userID, roleName string) error {
	timer := utils.TrackDBOperation("delete", "user_roles")
	defer timer.ObserveDuration()

	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = (SELECT role_id FROM roles WHERE role_name = $2)`,
		userID, roleName,
	)
	if err != nil {
		utils.TrackError("database", "role_revoke_failed")
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
