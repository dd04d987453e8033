// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// single-server forum this is plenty, and tests get a fresh, disposable
// database file per test.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// SCHEMA SHAPE:
// The original data model is document-ish (a user owns an embedded character
// list; a thread embeds posts and a character snapshot). Relationally that
// becomes five tables:
//
//	users              — accounts
//	characters         — one row per character, ordered by position
//	threads            — one row per thread
//	thread_posts       — the thread's posts, ordered by ordinal
//	thread_characters  — the thread's deduplicated character snapshot
//
// thread_posts and thread_characters are snapshot tables: they carry frozen
// copies of character fields, deliberately NOT foreign keys into characters.
// Editing or deleting a character must never alter an existing thread.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements all three repository
// interfaces (users, characters, threads). One type for all of them keeps
// the wiring simple — the server hands the same *DB to every service, each
// seeing only the interface it asked for.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Tests point dbPath at a file in a temp dir; ":memory:" would give each
// pooled connection its own empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection now, so a bad path or permissions
	// problem surfaces at startup instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — important
	// for a web server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We rely on ON DELETE CASCADE
	// to clean up a thread's posts and character snapshot, so turn them on.
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

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		-- Partial indexes: email is unique when present (GitHub accounts may
		-- hide theirs, leaving ''), github_id is unique when linked.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS characters (
			id       TEXT PRIMARY KEY,
			user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name     TEXT NOT NULL,
			nickname TEXT NOT NULL,
			fandom   TEXT NOT NULL,
			pic      TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_characters_user_id ON characters(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating characters table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL REFERENCES users(id),
			title        TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'draft',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			published_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_threads_owner_id ON threads(owner_id);
		CREATE INDEX IF NOT EXISTS idx_threads_status ON threads(status);
	`)
	if err != nil {
		return fmt.Errorf("creating threads table: %w", err)
	}

	// Posts are stored in submission order via ordinal. floor is the 1-based
	// display position, which usually but not necessarily equals ordinal+1
	// (the author can override it).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS thread_posts (
			thread_id        TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
			ordinal          INTEGER NOT NULL,
			character_index  INTEGER NOT NULL,
			character_id     TEXT NOT NULL,
			character_name   TEXT NOT NULL,
			character_fandom TEXT NOT NULL,
			nickname         TEXT NOT NULL,
			avatar           TEXT NOT NULL,
			content          TEXT NOT NULL,
			floor            INTEGER NOT NULL,
			PRIMARY KEY (thread_id, ordinal)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating thread_posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS thread_characters (
			thread_id    TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
			character_id TEXT NOT NULL,
			name         TEXT NOT NULL,
			nickname     TEXT NOT NULL,
			fandom       TEXT NOT NULL,
			pic          TEXT NOT NULL,
			ordinal      INTEGER NOT NULL,
			PRIMARY KEY (thread_id, character_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating thread_characters table: %w", err)
	}

	return nil
}
