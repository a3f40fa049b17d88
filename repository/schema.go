package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Bootstrap creates the relational tables and seed rows the service
// needs. Statements are idempotent; this is a development convenience,
// not a migration system.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			failed_login_attempts INT NOT NULL DEFAULT 0,
			account_locked BOOLEAN NOT NULL DEFAULT FALSE,
			mfa_secret TEXT NOT NULL DEFAULT '',
			password_last_changed TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			date_of_birth DATE,
			gender TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			emergency_contact_name TEXT NOT NULL DEFAULT '',
			emergency_contact_phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(user_id),
			token TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			device_info TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS user_sessions_token_idx ON user_sessions (token)`,
		`CREATE TABLE IF NOT EXISTS login_history (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(user_id),
			login_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			logout_time TIMESTAMPTZ,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			logout_type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS login_history_user_idx ON login_history (user_id, login_time DESC)`,
		`CREATE TABLE IF NOT EXISTS roles (
			role_id SERIAL PRIMARY KEY,
			role_name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			permission_id SERIAL PRIMARY KEY,
			permission_name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id TEXT NOT NULL REFERENCES users(user_id),
			role_id INT NOT NULL REFERENCES roles(role_id),
			PRIMARY KEY (user_id, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_id INT NOT NULL REFERENCES roles(role_id),
			permission_id INT NOT NULL REFERENCES permissions(permission_id),
			PRIMARY KEY (role_id, permission_id)
		)`,
		`CREATE TABLE IF NOT EXISTS organizations (
			org_id SERIAL PRIMARY KEY,
			org_name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_organizations (
			user_id TEXT NOT NULL REFERENCES users(user_id),
			org_id INT NOT NULL REFERENCES organizations(org_id),
			role_id INT REFERENCES roles(role_id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (user_id, org_id)
		)`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			entry_id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(user_id),
			entry_date DATE NOT NULL,
			calories INT NOT NULL DEFAULT 0,
			protein INT NOT NULL DEFAULT 0,
			carbs INT NOT NULL DEFAULT 0,
			fiber INT NOT NULL DEFAULT 0,
			has_allergens BOOLEAN NOT NULL DEFAULT FALSE,
			meals_per_day INT NOT NULL DEFAULT 0,
			hydration_level INT NOT NULL DEFAULT 0,
			bowel_frequency INT NOT NULL DEFAULT 0,
			bristol_scale INT NOT NULL DEFAULT 0,
			urgency_level INT NOT NULL DEFAULT 0,
			blood_present BOOLEAN NOT NULL DEFAULT FALSE,
			pain_location TEXT NOT NULL DEFAULT '',
			pain_severity INT NOT NULL DEFAULT 0,
			pain_time TEXT NOT NULL DEFAULT '',
			medication_taken BOOLEAN NOT NULL DEFAULT FALSE,
			medication_type TEXT NOT NULL DEFAULT '',
			dosage_level TEXT NOT NULL DEFAULT '',
			sleep_hours INT NOT NULL DEFAULT 0,
			stress_level INT NOT NULL DEFAULT 0,
			menstruation TEXT NOT NULL DEFAULT 'not_applicable',
			fatigue_level INT NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS journal_entries_user_idx ON journal_entries (user_id, entry_date DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}

	return seedRoles(ctx, db)
}

// seedRoles installs the default role and permission vocabulary.
func seedRoles(ctx context.Context, db *sql.DB) error {
	seeds := []string{
		`INSERT INTO roles (role_name) VALUES ('user'), ('clinician'), ('admin')
			ON CONFLICT (role_name) DO NOTHING`,
		`INSERT INTO permissions (permission_name) VALUES
			('read_own_data'), ('write_own_data'), ('read_all_data'), ('manage_users')
			ON CONFLICT (permission_name) DO NOTHING`,
		`INSERT INTO role_permissions (role_id, permission_id)
			SELECT r.role_id, p.permission_id FROM roles r, permissions p
			WHERE r.role_name = 'user' AND p.permission_name IN ('read_own_data', 'write_own_data')
			ON CONFLICT DO NOTHING`,
		`INSERT INTO role_permissions (role_id, permission_id)
			SELECT r.role_id, p.permission_id FROM roles r, permissions p
			WHERE r.role_name = 'clinician' AND p.permission_name IN ('read_own_data', 'read_all_data')
			ON CONFLICT DO NOTHING`,
		`INSERT INTO role_permissions (role_id, permission_id)
			SELECT r.role_id, p.permission_id FROM roles r, permissions p
			WHERE r.role_name = 'admin'
			ON CONFLICT DO NOTHING`,
	}

	for _, stmt := range seeds {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("role seed failed: %w", err)
		}
	}
	return nil
}
