// Package archive is the durable transcript store: a local SQLite database
// keyed by canonical reference, with upsert-by-reference semantics and the
// validity queries the sync engine needs.
package archive

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS transcripts (
  id                 INTEGER PRIMARY KEY AUTOINCREMENT,
  reference          TEXT UNIQUE NOT NULL,
  title              TEXT NOT NULL,
  event_date         TEXT NOT NULL,
  event_type         TEXT NOT NULL,
  location           TEXT,
  word_count         INTEGER NOT NULL DEFAULT 0,
  primary_word_count INTEGER NOT NULL DEFAULT 0,
  duration_seconds   INTEGER,
  dialogue           TEXT NOT NULL,
  speakers_json      TEXT,
  last_synced_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_transcripts_date ON transcripts(event_date);
CREATE INDEX IF NOT EXISTS idx_transcripts_type ON transcripts(event_type);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}
