package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Benny93/uml-go/internal/diagram"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saves (
	name TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL,
	classes INTEGER NOT NULL DEFAULT 0,
	relationships INTEGER NOT NULL DEFAULT 0,
	data BLOB NOT NULL
);
`

// SQLiteBackend is a SQLite-backed save library.
type SQLiteBackend struct {
	db       *sql.DB
	readOnly bool
	mu       sync.RWMutex
}

// NewSQLiteBackend creates a new SQLite backend.
func NewSQLiteBackend() *SQLiteBackend {
	return &SQLiteBackend{}
}

// Initialize opens or creates the database file at path. ":memory:" opens
// a private in-memory database.
func (b *SQLiteBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
		if readOnly {
			dsn += "&mode=ro"
		} else {
			dsn += "&_pragma=journal_mode(WAL)"
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if !readOnly {
		if _, err := db.Exec(sqliteSchema); err != nil {
			db.Close()
			return fmt.Errorf("migrating sqlite database: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening sqlite database: %w", err)
	}

	b.db = db
	b.readOnly = readOnly
	return nil
}

// Close releases all resources held by the backend.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Put implements Backend.
func (b *SQLiteBackend) Put(ctx context.Context, name string, s *diagram.Store) (SaveInfo, error) {
	if err := ValidateSaveName(name); err != nil {
		return SaveInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return SaveInfo{}, err
	}
	if b.readOnly {
		return SaveInfo{}, ErrReadOnly
	}

	rec := newRecord(name, s, time.Now())
	data, err := encodeRecord(rec)
	if err != nil {
		return SaveInfo{}, err
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO saves (name, saved_at, classes, relationships, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			saved_at = excluded.saved_at,
			classes = excluded.classes,
			relationships = excluded.relationships,
			data = excluded.data
	`, name, rec.SavedAt.Format(time.RFC3339Nano), rec.Classes, rec.Relationships, data)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("failed to upsert save: %w", err)
	}
	return rec.SaveInfo, nil
}

// Get implements Backend.
func (b *SQLiteBackend) Get(ctx context.Context, name string) (*diagram.Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM saves WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query save: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return rec.store()
}

// Delete implements Backend.
func (b *SQLiteBackend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if b.readOnly {
		return ErrReadOnly
	}

	res, err := b.db.ExecContext(ctx, `DELETE FROM saves WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// List implements Backend. Only the indexed columns are read.
func (b *SQLiteBackend) List(ctx context.Context) ([]SaveInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT name, saved_at, classes, relationships
		FROM saves
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query saves: %w", err)
	}
	defer rows.Close()

	var infos []SaveInfo
	for rows.Next() {
		var (
			info    SaveInfo
			savedAt string
		)
		if err := rows.Scan(&info.Name, &savedAt, &info.Classes, &info.Relationships); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		info.SavedAt, err = time.Parse(time.RFC3339Nano, strings.TrimSpace(savedAt))
		if err != nil {
			return nil, fmt.Errorf("parsing saved_at for %q: %w", info.Name, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saves: %w", err)
	}
	return infos, nil
}

func (b *SQLiteBackend) ready() error {
	if b.db == nil {
		return errors.New("sqlite backend not initialized")
	}
	return nil
}
