// Package store caches session payloads in SQLite so previously opened
// sessions can be shown when the backend is unreachable.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/model"
)

// ErrNotFound is returned when nothing is cached under a key.
var ErrNotFound = errors.New("not cached")

const historyKey = "history"

// Cache is a key/value table of raw JSON payloads.
type Cache struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, dbPath: path}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Path() string {
	return c.dbPath
}

// PutDetails stores the latest copy of a session.
func (c *Cache) PutDetails(ctx context.Context, d model.SessionDetails) error {
	if d.ID == "" {
		return fmt.Errorf("session details without id")
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", d.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO sessions (id, payload, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at`,
		d.ID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache session %s: %w", d.ID, err)
	}
	logging.Get(logging.CategoryStore).Debug("cached session",
		zap.String("session", d.ID),
		zap.Int("bytes", len(payload)))
	return nil
}

// Details returns the cached copy of a session.
func (c *Cache) Details(ctx context.Context, id string) (model.SessionDetails, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionDetails{}, ErrNotFound
	}
	if err != nil {
		return model.SessionDetails{}, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var d model.SessionDetails
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return model.SessionDetails{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return d, nil
}

// PutHistory stores the session list.
func (c *Cache) PutHistory(ctx context.Context, records []model.SessionRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO meta (key, payload, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at`,
		historyKey, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache history: %w", err)
	}
	return nil
}

// History returns the cached session list.
func (c *Cache) History(ctx context.Context) ([]model.SessionRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM meta WHERE key = ?`, historyKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records []model.SessionRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

// Forget removes everything, e.g. on logout.
func (c *Cache) Forget(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sessions; DELETE FROM meta;`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
