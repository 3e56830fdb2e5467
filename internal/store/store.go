package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// Store owns the relational state behind the dashboard: documentation
// blobs, environment variable sets and the request history log.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	source      TEXT NOT NULL DEFAULT '',
	content     BLOB NOT NULL,
	uploaded_at TIMESTAMP NOT NULL,
	modified_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS environments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	variables   TEXT NOT NULL DEFAULT '{}',
	is_active   INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id         TEXT NOT NULL UNIQUE,
	endpoint         TEXT NOT NULL,
	method           TEXT NOT NULL,
	request_headers  TEXT NOT NULL DEFAULT '{}',
	request_body     TEXT NOT NULL DEFAULT '',
	status           INTEGER NOT NULL,
	response_headers TEXT NOT NULL DEFAULT '{}',
	response_body    TEXT NOT NULL DEFAULT '',
	elapsed_ms       INTEGER NOT NULL,
	executed_at      TIMESTAMP NOT NULL,
	environment_id   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_history_executed_at ON history (executed_at DESC);
`

// Open creates the database file (and parent directory) if needed and
// applies the schema. Single-operator usage is assumed, so a single
// connection keeps SQLite writes serialized.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create store dir")
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "open database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "apply schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "ping database")
	}
	return nil
}
