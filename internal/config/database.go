package config

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// SetupDatabase opens and verifies the connection pool. The schema is
// created separately by Migrate.
func SetupDatabase(cfg *Config, logger logrus.FieldLogger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	logger.WithField("max_open_conns", cfg.Database.MaxOpenConns).Debug("database connected")
	return db, nil
}

// Migrate creates missing tables and indexes and seeds the built-in plans.
// Every statement is idempotent.
func Migrate(db *sqlx.DB, logger logrus.FieldLogger) error {
	if err := createTables(db, logger); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := seedPlans(db); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}

	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(50) UNIQUE NOT NULL,
		display_name VARCHAR(100) NOT NULL,
		description TEXT,
		price_monthly NUMERIC(10,2) NOT NULL DEFAULT 0,
		price_yearly NUMERIC(10,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		max_users INTEGER NOT NULL DEFAULT 5,
		max_tasks INTEGER NOT NULL DEFAULT 100,
		max_teams INTEGER NOT NULL DEFAULT 3,
		max_storage_mb INTEGER NOT NULL DEFAULT 100,
		max_projects INTEGER NOT NULL DEFAULT 5,
		features JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(100) UNIQUE NOT NULL,
		domain VARCHAR(255) UNIQUE,
		logo_url TEXT,
		email VARCHAR(255) NOT NULL,
		timezone VARCHAR(50) NOT NULL DEFAULT 'UTC',
		plan_id VARCHAR(36) NOT NULL REFERENCES plans(id),
		subscription_status VARCHAR(20) NOT NULL DEFAULT 'trialing',
		trial_ends_at TIMESTAMPTZ,
		subscription_ends_at TIMESTAMPTZ,
		settings JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) REFERENCES tenants(id) ON DELETE SET NULL,
		tenant_role VARCHAR(20) NOT NULL DEFAULT 'member',
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255),
		role VARCHAR(100) NOT NULL DEFAULT 'member',
		position VARCHAR(255),
		line_manager VARCHAR(36),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		avatar_url TEXT,
		start_date TEXT,
		end_date TEXT,
		computer TEXT,
		mobile TEXT,
		phone TEXT,
		birthday TEXT,
		disc_type TEXT,
		personality_type TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token VARCHAR(255) UNIQUE NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) REFERENCES tenants(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		icon VARCHAR(50),
		description TEXT,
		lead_id VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id VARCHAR(36) PRIMARY KEY,
		team_id VARCHAR(36) NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (team_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) REFERENCES tenants(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		status VARCHAR(50) NOT NULL DEFAULT 'todo',
		priority VARCHAR(20) NOT NULL DEFAULT 'medium',
		assigned_to VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		team_id VARCHAR(36) REFERENCES teams(id) ON DELETE SET NULL,
		due_date TIMESTAMPTZ,
		created_by VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		estimate_hours NUMERIC(8,2),
		readiness_checklist JSONB NOT NULL DEFAULT '[]',
		size VARCHAR(10),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id VARCHAR(36) PRIMARY KEY,
		key VARCHAR(255) UNIQUE NOT NULL,
		value TEXT NOT NULL,
		description TEXT,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kpi_profiles (
		subject VARCHAR(255) PRIMARY KEY,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kpi_set_collections (
		scope VARCHAR(255) PRIMARY KEY,
		sets JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS diagrams (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		diagram_data TEXT NOT NULL,
		created_by VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS draft_headcount (
		id VARCHAR(36) PRIMARY KEY,
		position_title VARCHAR(255) NOT NULL,
		department VARCHAR(255),
		line_manager VARCHAR(36),
		required_skills TEXT,
		description TEXT,
		status VARCHAR(50) NOT NULL DEFAULT 'draft',
		recruiting_status VARCHAR(50) NOT NULL DEFAULT 'not_started',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leave_requests (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		user_name VARCHAR(255) NOT NULL DEFAULT '',
		leave_type VARCHAR(20) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		days NUMERIC(6,2) NOT NULL,
		half_day_type VARCHAR(20) NOT NULL DEFAULT 'none',
		reason TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		requested_date TIMESTAMPTZ NOT NULL,
		reviewed_by VARCHAR(255),
		reviewed_date TIMESTAMPTZ,
		dates TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leave_balances (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) UNIQUE NOT NULL,
		user_name VARCHAR(255) NOT NULL DEFAULT '',
		annual_total NUMERIC(6,2) NOT NULL DEFAULT 15,
		annual_used NUMERIC(6,2) NOT NULL DEFAULT 0,
		sick_total NUMERIC(6,2) NOT NULL DEFAULT 10,
		sick_used NUMERIC(6,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS guest_trials (
		id VARCHAR(36) PRIMARY KEY,
		session_id VARCHAR(64) UNIQUE NOT NULL,
		ip_address VARCHAR(45),
		username VARCHAR(50) NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		max_uses INTEGER NOT NULL DEFAULT 10,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		last_used_at TIMESTAMPTZ,
		CHECK (usage_count <= max_uses)
	)`,
	`CREATE TABLE IF NOT EXISTS guest_translation_logs (
		id VARCHAR(36) PRIMARY KEY,
		guest_trial_id VARCHAR(36) REFERENCES guest_trials(id) ON DELETE SET NULL,
		session_id VARCHAR(64) NOT NULL,
		original_text TEXT NOT NULL,
		translated_text TEXT,
		detected_language VARCHAR(20),
		ip_address VARCHAR(45),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		url TEXT NOT NULL,
		favicon TEXT,
		description TEXT,
		category VARCHAR(100) NOT NULL DEFAULT 'Uncategorized',
		tags TEXT[] NOT NULL DEFAULT '{}',
		user_id VARCHAR(36) REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collections (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		owner_id VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collection_members (
		id VARCHAR(36) PRIMARY KEY,
		collection_id VARCHAR(36) NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (collection_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ai_provider_keys (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		user_id VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
		provider VARCHAR(50) NOT NULL,
		name VARCHAR(100) NOT NULL,
		api_key_encrypted TEXT NOT NULL,
		model VARCHAR(100),
		base_url TEXT,
		settings JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_used_at TIMESTAMPTZ,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)",
	"CREATE INDEX IF NOT EXISTS idx_leave_requests_user ON leave_requests(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_leave_requests_requested ON leave_requests(requested_date DESC)",
	"CREATE INDEX IF NOT EXISTS idx_guest_trials_ip ON guest_trials(ip_address, expires_at)",
	"CREATE INDEX IF NOT EXISTS idx_guest_logs_created ON guest_translation_logs(created_at)",
	"CREATE INDEX IF NOT EXISTS idx_ai_keys_tenant ON ai_provider_keys(tenant_id, provider)",
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB, logger logrus.FieldLogger) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// indexes are not critical
			logger.WithError(err).Warn("failed to create index")
		}
	}

	return nil
}

type planSeed struct {
	name, displayName                       string
	monthly, yearly                         float64
	users, tasks, teams, storageMB, projects int
	sortOrder                               int
}

var defaultPlans = []planSeed{
	{"free", "Free", 0, 0, 5, 100, 3, 100, 5, 0},
	{"starter", "Starter", 9.99, 99, 20, 1000, 10, 1024, 20, 1},
	{"professional", "Professional", 29.99, 299, 100, 10000, 50, 10240, 100, 2},
	{"enterprise", "Enterprise", 99.99, 999, -1, -1, -1, 102400, -1, 3},
}

// seedPlans inserts the built-in plans once; existing rows are left alone
func seedPlans(db *sqlx.DB) error {
	for _, p := range defaultPlans {
		_, err := db.Exec(`
			INSERT INTO plans (id, name, display_name, price_monthly, price_yearly,
				max_users, max_tasks, max_teams, max_storage_mb, max_projects,
				sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`,
			uuid.New().String(), p.name, p.displayName, p.monthly, p.yearly,
			p.users, p.tasks, p.teams, p.storageMB, p.projects, p.sortOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
