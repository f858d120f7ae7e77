// Package sqlite implements the repository ports on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver, so the binary
// builds without cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and carries the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at path (":memory:" for tests), applies the
// connection pragmas and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL keeps reads concurrent with writes; foreign keys are off by
	// default in SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive; the readiness probe uses it.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Timestamps are stored as fixed-width ISO
// UTC strings so that lexicographic comparison matches chronological
// order; the composite index backs the canonical (created_at, id)
// descending ordering used by cursor pagination.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS learning_logs (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			reflection TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '[]',
			time_spent INTEGER NOT NULL,
			source_url TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_learning_logs_created_id
			ON learning_logs(created_at DESC, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating learning_logs table: %w", err)
	}
	return nil
}
