// Package sqlite persists dashboard state in a SQLite key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

const schema = `
CREATE TABLE IF NOT EXISTS dashboard_state (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Persister implements dashboard.Persister over a SQLite database.
type Persister struct {
	db    *sql.DB
	clock func() time.Time
}

var _ dashboard.Persister = (*Persister)(nil)

// Open opens (creating if needed) the database at path. Use ":memory:" for a
// throwaway database.
func Open(ctx context.Context, path string) (*Persister, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	p, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// New wraps an existing handle and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Persister, error) {
	if db == nil {
		return nil, errors.New("sqlite: db is required")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &Persister{db: db, clock: time.Now}, nil
}

func (p *Persister) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM dashboard_state WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dashboard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", key, err)
	}
	return payload, nil
}

func (p *Persister) Save(ctx context.Context, key string, payload []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO dashboard_state (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, p.clock().Unix())
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (p *Persister) Close() error {
	return p.db.Close()
}
