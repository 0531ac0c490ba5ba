// Package store persists schemas, log records, and API keys behind a sqlx
// connection. It speaks two dialects: embedded SQLite (the default, and what
// the tests run against) and PostgreSQL via the pgx stdlib driver. Storage
// errors are translated into the apperr taxonomy at this boundary; callers
// never see raw driver errors.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavor the store is speaking.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store is the shared persistence layer for all repositories.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLite opens (or creates) the embedded SQLite database under dataDir.
// Pass empty string for an in-memory database.
func NewSQLite(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "logvault.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Enable foreign keys (off by default in SQLite); the log insert path
	// relies on FK violations to detect a missing schema.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, dialect: DialectSQLite}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// NewPostgres connects to PostgreSQL with the given DSN.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	s := &Store{db: db, dialect: DialectPostgres}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Open dispatches on the configured driver name.
func Open(driver, dsn, dataDir string) (*Store, error) {
	switch Dialect(driver) {
	case DialectPostgres:
		return NewPostgres(dsn)
	case DialectSQLite, "":
		return NewSQLite(dataDir)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Dialect returns the SQL flavor in use.
func (s *Store) Dialect() Dialect { return s.dialect }

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-placeholders to the dialect's bind format.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
