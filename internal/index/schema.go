// Package index mirrors the loaded catalog into SQLite so categories and
// records can be queried without holding a session.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	position        INTEGER PRIMARY KEY,
	id              TEXT NOT NULL DEFAULT '',
	file_identifier TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	media_ref       TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	category_key    TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
CREATE INDEX IF NOT EXISTS idx_records_file ON records(file_identifier);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
