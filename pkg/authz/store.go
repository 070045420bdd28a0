package authz

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/starcommerce/lms-auth/pkg/registry"
)

// Store is what the resolver needs from persistence. The SQL store
// implements it; resolver tests substitute a fake.
type Store interface {
	// AllPermissionCodes returns every enabled permission code.
	AllPermissionCodes(ctx context.Context) ([]string, error)
	// RolePermissionCodes returns the enabled permission codes granted to a
	// live role. Unknown or deleted roles yield an empty set.
	RolePermissionCodes(ctx context.Context, roleCode string) ([]string, error)
	// UserRoleCodes returns the codes of live roles directly assigned to the
	// user.
	UserRoleCodes(ctx context.Context, username string) ([]string, error)
	// UserPermissionCodes returns the enabled permission codes directly
	// assigned to the user.
	UserPermissionCodes(ctx context.Context, username string) ([]string, error)
}

// RoleChanges reports what a role mutation touched, for cache invalidation.
type RoleChanges struct {
	GrantsChanged  bool
	AddedMembers   []string
	RemovedMembers []string
}

// SQLStore persists permissions, roles and assignments in Postgres.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store on an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// AllPermissionCodes returns every enabled permission code.
func (s *SQLStore) AllPermissionCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM lms_permission WHERE status = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission codes: %w", err)
	}
	return scanStrings(rows)
}

// RolePermissionCodes returns the enabled permission codes granted to a live
// role.
func (s *SQLStore) RolePermissionCodes(ctx context.Context, roleCode string) ([]string, error) {
	query := `
		SELECT p.code
		FROM lms_role_permission rp
		JOIN lms_role r ON r.id = rp.role_id AND r.is_deleted = 0
		JOIN lms_permission p ON p.id = rp.permission_id AND p.status = 1
		WHERE r.code = $1
	`
	rows, err := s.db.QueryContext(ctx, query, roleCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	return scanStrings(rows)
}

// UserRoleCodes returns the codes of live roles directly assigned to the
// user.
func (s *SQLStore) UserRoleCodes(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT r.code
		FROM lms_user_role ur
		JOIN lms_role r ON r.id = ur.role_id AND r.is_deleted = 0
		WHERE ur.username = $1
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	return scanStrings(rows)
}

// UserPermissionCodes returns the enabled permission codes directly assigned
// to the user.
func (s *SQLStore) UserPermissionCodes(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT p.code
		FROM lms_user_permission up
		JOIN lms_permission p ON p.id = up.permission_id AND p.status = 1
		WHERE up.username = $1
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user permissions: %w", err)
	}
	return scanStrings(rows)
}

// ListPermissions returns permission rows ordered for the admin UI.
func (s *SQLStore) ListPermissions(ctx context.Context, includeDisabled bool) ([]Permission, error) {
	query := `
		SELECT id, code, COALESCE(name, ''), COALESCE(description, ''), COALESCE(module, ''), COALESCE(entity, ''), status
		FROM lms_permission
	`
	if !includeDisabled {
		query += ` WHERE status = 1`
	}
	query += ` ORDER BY module, entity, code`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		var status int
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Module, &p.Entity, &status); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		p.Enabled = status == 1
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetRoleByCode returns a role regardless of its deleted flag, so callers
// can restore soft-deleted roles.
func (s *SQLStore) GetRoleByCode(ctx context.Context, code string) (*Role, error) {
	query := `
		SELECT id, code, name, kind, is_deleted, created_at, updated_at
		FROM lms_role
		WHERE code = $1
	`
	var role Role
	var kind, deleted int
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&role.ID, &role.Code, &role.Name, &kind, &deleted, &role.CreatedAt, &role.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("role not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	role.Kind = RoleKind(kind)
	role.Deleted = deleted == 1
	return &role, nil
}

// ListRoles lists roles, optionally including soft-deleted ones.
func (s *SQLStore) ListRoles(ctx context.Context, includeDeleted bool) ([]Role, error) {
	query := `
		SELECT id, code, name, kind, is_deleted, created_at, updated_at
		FROM lms_role
	`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY kind, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		var kind, deleted int
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &kind, &deleted, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role.Kind = RoleKind(kind)
		role.Deleted = deleted == 1
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a role with its initial grants and members in one
// transaction.
func (s *SQLStore) CreateRole(ctx context.Context, role *Role, permissionIDs []int64, members []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO lms_role (code, name, kind, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
		RETURNING id
	`, role.Code, role.Name, int(role.Kind), now).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	role.CreatedAt = now
	role.UpdatedAt = now

	for _, permID := range permissionIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lms_role_permission (role_id, permission_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, role.ID, permID); err != nil {
			return fmt.Errorf("failed to grant permission %d: %w", permID, err)
		}
	}
	for _, username := range members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lms_user_role (username, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, username, role.ID); err != nil {
			return fmt.Errorf("failed to add member %s: %w", username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role create: %w", err)
	}
	return nil
}

// UpdateRole updates a role's base fields and replaces grants or members
// when the corresponding slice is non-nil. Everything happens in one
// transaction; the returned changes drive cache invalidation.
func (s *SQLStore) UpdateRole(ctx context.Context, role *Role, permissionIDs []int64, members []string) (RoleChanges, error) {
	var changes RoleChanges

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return changes, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	role.UpdatedAt = time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE lms_role SET name = $1, kind = $2, updated_at = $3 WHERE id = $4
	`, role.Name, int(role.Kind), role.UpdatedAt, role.ID); err != nil {
		return changes, fmt.Errorf("failed to update role: %w", err)
	}

	if permissionIDs != nil {
		current, err := queryInt64s(ctx, tx, `
			SELECT permission_id FROM lms_role_permission WHERE role_id = $1
		`, role.ID)
		if err != nil {
			return changes, fmt.Errorf("failed to load role grants: %w", err)
		}
		add, remove := diffInt64s(current, permissionIDs)
		if len(add) > 0 || len(remove) > 0 {
			changes.GrantsChanged = true
		}
		if len(remove) > 0 {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM lms_role_permission WHERE role_id = $1 AND permission_id = ANY($2)
			`, role.ID, pq.Array(remove)); err != nil {
				return changes, fmt.Errorf("failed to revoke permissions: %w", err)
			}
		}
		for _, permID := range add {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lms_role_permission (role_id, permission_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, role.ID, permID); err != nil {
				return changes, fmt.Errorf("failed to grant permission %d: %w", permID, err)
			}
		}
	}

	if members != nil {
		current, err := queryStringsTx(ctx, tx, `
			SELECT username FROM lms_user_role WHERE role_id = $1
		`, role.ID)
		if err != nil {
			return changes, fmt.Errorf("failed to load role members: %w", err)
		}
		add, remove := diffStrings(current, members)
		changes.AddedMembers = add
		changes.RemovedMembers = remove
		if len(remove) > 0 {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM lms_user_role WHERE role_id = $1 AND username = ANY($2)
			`, role.ID, pq.Array(remove)); err != nil {
				return changes, fmt.Errorf("failed to remove members: %w", err)
			}
		}
		for _, username := range add {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lms_user_role (username, role_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, username, role.ID); err != nil {
				return changes, fmt.Errorf("failed to add member %s: %w", username, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return changes, fmt.Errorf("failed to commit role update: %w", err)
	}
	return changes, nil
}

// SetRoleDeleted flips a role's soft-delete flag.
func (s *SQLStore) SetRoleDeleted(ctx context.Context, roleID int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE lms_role SET is_deleted = $1, updated_at = $2 WHERE id = $3
	`, flag, time.Now(), roleID); err != nil {
		return fmt.Errorf("failed to set role deleted flag: %w", err)
	}
	return nil
}

// RoleMembers returns the usernames directly assigned to a role.
func (s *SQLStore) RoleMembers(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username FROM lms_user_role WHERE role_id = $1
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role members: %w", err)
	}
	return scanStrings(rows)
}

// RolePermissionIDs returns the permission IDs granted to a role.
func (s *SQLStore) RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT permission_id FROM lms_role_permission WHERE role_id = $1
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role grants: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetUserAssignments replaces a user's direct role and permission
// assignments in one transaction. Both lists are authoritative: rows not
// listed are removed.
func (s *SQLStore) SetUserAssignments(ctx context.Context, username string, roleIDs []int64, permissionIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	currentRoles, err := queryInt64s(ctx, tx, `
		SELECT role_id FROM lms_user_role WHERE username = $1
	`, username)
	if err != nil {
		return fmt.Errorf("failed to load user roles: %w", err)
	}
	addRoles, removeRoles := diffInt64s(currentRoles, roleIDs)
	if len(removeRoles) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM lms_user_role WHERE username = $1 AND role_id = ANY($2)
		`, username, pq.Array(removeRoles)); err != nil {
			return fmt.Errorf("failed to remove user roles: %w", err)
		}
	}
	for _, roleID := range addRoles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lms_user_role (username, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, username, roleID); err != nil {
			return fmt.Errorf("failed to assign role %d: %w", roleID, err)
		}
	}

	currentPerms, err := queryInt64s(ctx, tx, `
		SELECT permission_id FROM lms_user_permission WHERE username = $1
	`, username)
	if err != nil {
		return fmt.Errorf("failed to load user permissions: %w", err)
	}
	addPerms, removePerms := diffInt64s(currentPerms, permissionIDs)
	if len(removePerms) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM lms_user_permission WHERE username = $1 AND permission_id = ANY($2)
		`, username, pq.Array(removePerms)); err != nil {
			return fmt.Errorf("failed to remove user permissions: %w", err)
		}
	}
	for _, permID := range addPerms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lms_user_permission (username, permission_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, username, permID); err != nil {
			return fmt.Errorf("failed to assign permission %d: %w", permID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user assignments: %w", err)
	}
	return nil
}

// UserAssignments returns a user's direct role and permission IDs.
func (s *SQLStore) UserAssignments(ctx context.Context, username string) (roleIDs, permissionIDs []int64, err error) {
	roleRows, err := s.db.QueryContext(ctx, `
		SELECT role_id FROM lms_user_role WHERE username = $1
	`, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var id int64
		if err := roleRows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan user role: %w", err)
		}
		roleIDs = append(roleIDs, id)
	}
	if err := roleRows.Err(); err != nil {
		return nil, nil, err
	}

	permRows, err := s.db.QueryContext(ctx, `
		SELECT permission_id FROM lms_user_permission WHERE username = $1
	`, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user permissions: %w", err)
	}
	defer permRows.Close()
	for permRows.Next() {
		var id int64
		if err := permRows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan user permission: %w", err)
		}
		permissionIDs = append(permissionIDs, id)
	}
	return roleIDs, permissionIDs, permRows.Err()
}

// Permissions returns every permission row, disabled included, for the
// reconciler's diff.
func (s *SQLStore) Permissions(ctx context.Context) ([]registry.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, COALESCE(name, ''), COALESCE(module, ''), COALESCE(entity, '')
		FROM lms_permission
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	defer rows.Close()

	var result []registry.Row
	for rows.Next() {
		var row registry.Row
		if err := rows.Scan(&row.ID, &row.Code, &row.Name, &row.Module, &row.Entity); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Apply executes a reconcile change set in one transaction. Deletes are
// guarded against the system permission range as a second line of defense
// behind the reconciler's protected set. Updates force rows back to enabled.
func (s *SQLStore) Apply(ctx context.Context, deletes []int64, creates []registry.Row, updates []registry.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if len(deletes) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM lms_permission WHERE id = ANY($1) AND id > $2
		`, pq.Array(deletes), SystemPermissionMaxID); err != nil {
			return fmt.Errorf("failed to delete permissions: %w", err)
		}
	}
	for _, row := range creates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lms_permission (code, name, module, entity, status)
			VALUES ($1, $2, $3, $4, 1)
			ON CONFLICT (code) DO NOTHING
		`, row.Code, row.Name, row.Module, row.Entity); err != nil {
			return fmt.Errorf("failed to create permission %s: %w", row.Code, err)
		}
	}
	for _, row := range updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE lms_permission SET name = $1, module = $2, entity = $3, status = 1
			WHERE id = $4
		`, row.Name, row.Module, row.Entity, row.ID); err != nil {
			return fmt.Errorf("failed to update permission %s: %w", row.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit permission changes: %w", err)
	}
	return nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func queryStringsTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func queryInt64s(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func diffInt64s(current, wanted []int64) (add, remove []int64) {
	have := make(map[int64]bool, len(current))
	for _, v := range current {
		have[v] = true
	}
	want := make(map[int64]bool, len(wanted))
	for _, v := range wanted {
		want[v] = true
		if !have[v] {
			add = append(add, v)
		}
	}
	for _, v := range current {
		if !want[v] {
			remove = append(remove, v)
		}
	}
	return add, remove
}

func diffStrings(current, wanted []string) (add, remove []string) {
	have := make(map[string]bool, len(current))
	for _, v := range current {
		have[v] = true
	}
	want := make(map[string]bool, len(wanted))
	for _, v := range wanted {
		want[v] = true
		if !have[v] {
			add = append(add, v)
		}
	}
	for _, v := range current {
		if !want[v] {
			remove = append(remove, v)
		}
	}
	return add, remove
}
