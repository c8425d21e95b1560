// ABOUTME: Database schema definitions for appointments, integrations, and notifications
// ABOUTME: Handles table creation for both the SQLite and MySQL dialects
package db

import (
	"database/sql"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	all_day INTEGER NOT NULL DEFAULT 0,
	location TEXT NOT NULL DEFAULT '',
	appointment_type TEXT NOT NULL DEFAULT 'personal',
	color TEXT NOT NULL DEFAULT '',
	invited_client_emails TEXT NOT NULL DEFAULT '[]',
	nylas_event_id TEXT,
	google_event_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_user_start ON appointments(user_id, start_time);
CREATE INDEX IF NOT EXISTS idx_appointments_nylas_event ON appointments(nylas_event_id);
CREATE INDEX IF NOT EXISTS idx_appointments_google_event ON appointments(google_event_id);

CREATE TABLE IF NOT EXISTS integrations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL CHECK(provider IN ('nylas', 'google')),
	grant_id TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	calendar_id TEXT NOT NULL DEFAULT 'primary',
	is_active INTEGER NOT NULL DEFAULT 1,
	last_sync_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(user_id, provider)
);

CREATE INDEX IF NOT EXISTS idx_integrations_grant ON integrations(grant_id);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('info', 'warning', 'error')),
	category TEXT NOT NULL,
	source_type TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL DEFAULT '',
	action_url TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'normal' CHECK(priority IN ('low', 'normal', 'high')),
	is_read INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// MySQL rejects multi-statement Exec without multiStatements=true and has no
// CREATE INDEX IF NOT EXISTS, so indexes live inside each CREATE TABLE.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS appointments (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(191) NOT NULL,
	title VARCHAR(512) NOT NULL,
	description TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	all_day TINYINT(1) NOT NULL DEFAULT 0,
	location VARCHAR(512) NOT NULL,
	appointment_type VARCHAR(32) NOT NULL,
	color VARCHAR(32) NOT NULL,
	invited_client_emails TEXT NOT NULL,
	nylas_event_id VARCHAR(191) NULL,
	google_event_id VARCHAR(191) NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	INDEX idx_appointments_user_start (user_id, start_time),
	INDEX idx_appointments_nylas_event (nylas_event_id),
	INDEX idx_appointments_google_event (google_event_id)
)`,
	`CREATE TABLE IF NOT EXISTS integrations (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(191) NOT NULL,
	provider VARCHAR(16) NOT NULL,
	grant_id VARCHAR(191) NOT NULL,
	email VARCHAR(255) NOT NULL,
	calendar_id VARCHAR(255) NOT NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	last_sync_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE KEY uniq_integrations_user_provider (user_id, provider),
	INDEX idx_integrations_grant (grant_id)
)`,
	`CREATE TABLE IF NOT EXISTS notifications (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(191) NOT NULL,
	title VARCHAR(255) NOT NULL,
	message TEXT NOT NULL,
	type VARCHAR(16) NOT NULL,
	category VARCHAR(32) NOT NULL,
	source_type VARCHAR(64) NOT NULL,
	source_id VARCHAR(191) NOT NULL,
	action_url VARCHAR(1024) NOT NULL,
	priority VARCHAR(16) NOT NULL,
	is_read TINYINT(1) NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	INDEX idx_notifications_user (user_id, created_at)
)`,
	`CREATE TABLE IF NOT EXISTS sync_state (
	service VARCHAR(191) PRIMARY KEY,
	last_sync_time DATETIME NULL,
	status VARCHAR(16),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

// InitSchema creates all tables for the given dialect.
func InitSchema(db *sql.DB, dialect string) error {
	switch dialect {
	case DialectSQLite:
		_, err := db.Exec(sqliteSchema)
		return err
	case DialectMySQL:
		for _, stmt := range mysqlSchema {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply mysql schema: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
