package store

import (
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS schemas (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		description TEXT,
		schema_definition TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(name, version)
	)`,

	`CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schema_id TEXT NOT NULL REFERENCES schemas(id),
		log_data TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,

	// Covering index for the cursor window scan.
	`CREATE INDEX IF NOT EXISTS idx_logs_schema_window ON logs(schema_id, created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL,
		last_used_at DATETIME,
		expires_at DATETIME,
		is_active INTEGER NOT NULL DEFAULT 1,
		usage_count INTEGER,
		allowed_ips TEXT,
		rate_limit_per_second INTEGER,
		rate_limit_burst INTEGER
	)`,

	`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS schemas (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		description TEXT,
		schema_definition JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE(name, version)
	)`,

	`CREATE TABLE IF NOT EXISTS logs (
		id BIGSERIAL PRIMARY KEY,
		schema_id UUID NOT NULL REFERENCES schemas(id),
		log_data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_logs_schema_window ON logs(schema_id, created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGSERIAL PRIMARY KEY,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		last_used_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		usage_count BIGINT,
		allowed_ips TEXT,
		rate_limit_per_second INTEGER,
		rate_limit_burst INTEGER
	)`,

	`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
}

func (s *Store) migrate() error {
	migrations := sqliteMigrations
	if s.dialect == DialectPostgres {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// ALTER TABLE ADD COLUMN fails if the column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
