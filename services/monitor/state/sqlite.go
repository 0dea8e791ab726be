package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS monitor_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const historyKey = "history"

// SqliteStore keeps the history blob in a single-row key/value
// table. Useful when the monitor shares a database with other
// tooling instead of owning a state file.
type SqliteStore struct {
	db *sql.DB
}

func OpenSqliteStore(path string) (*SqliteStore, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0o755)
		if err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(sqliteSchema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state schema: %w", err)
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT value FROM monitor_state WHERE key = ?",
		historyKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying state: %w", err)
	}
	return []byte(value), nil
}

func (s *SqliteStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitor_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, historyKey, string(blob))
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}
