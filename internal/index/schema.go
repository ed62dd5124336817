// Package index keeps a SQLite catalogue of repository files, their
// revisions and every line each revision introduced, with optional FTS5
// full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	head       TEXT NOT NULL DEFAULT '',
	revisions  INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revisions (
	path     TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	rev      TEXT NOT NULL,
	parent   TEXT NOT NULL DEFAULT '',
	author   TEXT NOT NULL DEFAULT '',
	date     DATETIME NOT NULL,
	state    TEXT NOT NULL DEFAULT '',
	tags     TEXT NOT NULL DEFAULT '[]',
	branches TEXT NOT NULL DEFAULT '[]',
	log      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY(path, rev)
);

CREATE TABLE IF NOT EXISTS lines (
	path   TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	origin TEXT NOT NULL,
	body   TEXT NOT NULL,
	UNIQUE(path, origin, body)
);

CREATE INDEX IF NOT EXISTS idx_revisions_path ON revisions(path, seq);
CREATE INDEX IF NOT EXISTS idx_lines_path ON lines(path);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
