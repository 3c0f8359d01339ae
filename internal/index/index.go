// Package index provides a SQLite-backed local cache of document metadata
// and OCR fields for offline search, plus the inbox upload ledger. The
// cache mirrors server snapshots and is never authoritative: every sync
// replaces the document set wholesale.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id                INTEGER PRIMARY KEY,
	filename          TEXT NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL DEFAULT '',
	file_type         TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	vin               TEXT NOT NULL DEFAULT '',
	buyer_name        TEXT NOT NULL DEFAULT '',
	seller_name       TEXT NOT NULL DEFAULT '',
	sale_date         TEXT NOT NULL DEFAULT '',
	sale_amount       TEXT NOT NULL DEFAULT '',
	odometer_reading  TEXT NOT NULL DEFAULT '',
	document_type     TEXT NOT NULL DEFAULT '',
	uploaded_at       DATETIME,
	enriched          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS inbox_uploads (
	checksum    TEXT PRIMARY KEY,
	filename    TEXT NOT NULL DEFAULT '',
	uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DocIndex defines the index operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type DocIndex interface {
	ReplaceAll(docs []DocRow) error
	Enrich(d DetailRow) error
	Get(id int) (*DocRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	SeenUpload(checksum string) (bool, error)
	RecordUpload(checksum, filename string) error
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)

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
