package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// DefaultPath is ~/.config/redlog/redlog.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "redlog", "redlog.db"), nil
}

// Open opens (and migrates) the database at path. ":memory:" is accepted.
func Open(path string) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &DB{db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			issue_id INTEGER NOT NULL,
			spent_on TEXT NOT NULL,
			hours REAL NOT NULL,
			activity_id INTEGER NOT NULL,
			comments TEXT NOT NULL,
			redmine_url TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_created ON journal(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	return nil
}

func (db *DB) GetState(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (db *DB) SetState(key, value string) error {
	_, err := db.Exec(
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Load decodes the JSON value stored under key into v. It reports false
// and leaves v untouched when nothing is stored.
func (db *DB) Load(key string, v any) (bool, error) {
	raw, err := db.GetState(key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the value stored under key with the JSON encoding of v.
func (db *DB) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := db.SetState(key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Update replaces the value under key with what fn returns, inside one
// IMMEDIATE transaction, so read-modify-write cycles from other handles on
// the same file cannot interleave. raw is nil when nothing is stored. A nil
// result leaves the value untouched.
func (db *DB) Update(key string, fn func(raw []byte) ([]byte, error)) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("starting transaction for %s: %w", key, err)
	}
	done := false
	defer func() {
		if !done {
			conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	var value string
	var raw []byte
	err = conn.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("reading %s: %w", key, err)
	case value != "":
		raw = []byte(value)
	}

	out, err := fn(raw)
	if err != nil {
		return err
	}
	if out != nil {
		_, err = conn.ExecContext(ctx,
			"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, string(out),
		)
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("committing %s: %w", key, err)
	}
	done = true
	return nil
}
