// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3: it is a pure Go
// translation of SQLite, so there is no CGo dependency and cross-compilation
// just works. The driver registers itself with database/sql under the name
// "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB owns the sql.DB connection pool and the schema. The per-entity stores
// (UserStore, AuditStore, MedicineStore) all share this one pool; sql.DB is
// itself concurrency-safe, which is the only shared mutable state in the
// process.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection, so collapse the pool to
	// one connection or each query could see a different (empty) schema.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — needed for a web
	// server where concurrent logins hit the users table.
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

// Close closes the connection pool. Callers should defer this right after
// New so the WAL is flushed on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent across restarts.
func (db *DB) migrate() error {
	// The UNIQUE constraint on email is load-bearing: it is what guarantees
	// at most one account per email under concurrent first logins. The
	// reconciler relies on the insert conflict to detect the race.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL UNIQUE,
			provider     TEXT NOT NULL,
			provider_key TEXT NOT NULL,
			created_on   DATETIME NOT NULL,
			last_login   DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Append-only: nothing in the application updates or deletes rows here.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS login_history (
			id          TEXT PRIMARY KEY,
			user_email  TEXT NOT NULL,
			provider    TEXT NOT NULL,
			action      TEXT NOT NULL,
			ip_address  TEXT NOT NULL DEFAULT '',
			action_time DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_login_history_action_time ON login_history(action_time);
	`)
	if err != nil {
		return fmt.Errorf("creating login_history table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS medicines (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			company     TEXT NOT NULL,
			price       REAL NOT NULL DEFAULT 0,
			expiry_date DATETIME NOT NULL,
			stock       INTEGER NOT NULL DEFAULT 0,
			created_on  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines(name);
	`)
	if err != nil {
		return fmt.Errorf("creating medicines table: %w", err)
	}

	return nil
}
