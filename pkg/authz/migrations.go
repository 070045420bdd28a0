package authz

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration is one schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the authorization schema in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create lms_permission table",
			SQL: `
				CREATE TABLE IF NOT EXISTS lms_permission (
					id BIGSERIAL PRIMARY KEY,
					code VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(255),
					description VARCHAR(255),
					module VARCHAR(255),
					entity VARCHAR(255),
					status SMALLINT NOT NULL DEFAULT 1
				);

				CREATE INDEX idx_lms_permission_module ON lms_permission(module, entity);
				CREATE INDEX idx_lms_permission_status ON lms_permission(status);
			`,
		},
		{
			Version:     2,
			Description: "Create lms_role table",
			SQL: `
				CREATE TABLE IF NOT EXISTS lms_role (
					id BIGSERIAL PRIMARY KEY,
					code VARCHAR(100) NOT NULL UNIQUE,
					name VARCHAR(100) NOT NULL,
					kind SMALLINT NOT NULL DEFAULT 0,
					is_deleted SMALLINT NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_lms_role_kind ON lms_role(kind);
				CREATE INDEX idx_lms_role_is_deleted ON lms_role(is_deleted);
			`,
		},
		{
			Version:     3,
			Description: "Create association tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS lms_user_role (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(150) NOT NULL,
					role_id BIGINT NOT NULL REFERENCES lms_role(id) ON DELETE CASCADE,
					UNIQUE(username, role_id)
				);

				CREATE TABLE IF NOT EXISTS lms_role_permission (
					id BIGSERIAL PRIMARY KEY,
					role_id BIGINT NOT NULL REFERENCES lms_role(id) ON DELETE CASCADE,
					permission_id BIGINT NOT NULL REFERENCES lms_permission(id) ON DELETE CASCADE,
					UNIQUE(role_id, permission_id)
				);

				CREATE TABLE IF NOT EXISTS lms_user_permission (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(150) NOT NULL,
					permission_id BIGINT NOT NULL REFERENCES lms_permission(id) ON DELETE CASCADE,
					UNIQUE(username, permission_id)
				);

				CREATE INDEX idx_lms_user_role_username ON lms_user_role(username);
				CREATE INDEX idx_lms_role_permission_role_id ON lms_role_permission(role_id);
				CREATE INDEX idx_lms_user_permission_username ON lms_user_permission(username);
			`,
		},
		{
			Version:     4,
			Description: "Seed pseudo-permissions",
			SQL: `
				INSERT INTO lms_permission (id, code, name, status) VALUES
					(1, 'lms.allow_any', '所有人权限', 1),
					(2, 'lms.is_authenticated', '登录用户权限', 1),
					(3, 'lms.staff', '后台管理权限', 1),
					(4, 'lms.sudo', '超级管理权限', 1)
				ON CONFLICT (code) DO NOTHING;

				SELECT setval('lms_permission_id_seq', 10, true);
			`,
		},
		{
			Version:     5,
			Description: "Seed system roles",
			SQL: `
				INSERT INTO lms_role (id, code, name, kind) VALUES
					(1, 'system:user', '系统用户', 0),
					(2, 'system:director', '总监', 0),
					(3, 'develop:user', '研发用户', 6),
					(4, 'seller:member', '销售专员', 1),
					(5, 'seller:leader', '销售组长', 1),
					(6, 'seller:head', '销售主管', 1),
					(7, 'seller:manager', '销售经理', 1),
					(8, 'service:member', '客服专员', 2),
					(9, 'service:leader', '客服组长', 2),
					(10, 'service:head', '客服主管', 2),
					(11, 'service:manager', '客服经理', 2),
					(12, 'warehouse:member', '仓储专员', 3),
					(13, 'warehouse:leader', '仓储组长', 3),
					(14, 'warehouse:head', '仓储主管', 3),
					(15, 'warehouse:manager', '仓储经理', 3),
					(16, 'logistic:user', '物流用户', 4),
					(17, 'logistic:member', '物流专员', 4),
					(18, 'finance:member', '财务专员', 5),
					(19, 'finance:leader', '财务组长', 5),
					(20, 'finance:head', '财务主管', 5),
					(21, 'finance:manager', '财务经理', 5)
				ON CONFLICT (code) DO NOTHING;

				SELECT setval('lms_role_id_seq', 100, true);
			`,
		},
	}
}

// RunMigrations applies pending migrations, each in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	if log == nil {
		log = logrus.New()
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lms_auth_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM lms_auth_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		log.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO lms_auth_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
