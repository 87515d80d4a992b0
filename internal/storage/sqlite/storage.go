// Package sqlite provides the SQLite-backed history storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
	_ "modernc.org/sqlite"
)

const timeFormat = "2006-01-02T15:04:05Z"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	action     TEXT    NOT NULL,
	page_id    TEXT    NOT NULL,
	title      TEXT    NOT NULL DEFAULT '',
	space_key  TEXT    NOT NULL DEFAULT '',
	parent_id  TEXT    NOT NULL DEFAULT '',
	url        TEXT    NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 0,
	source     TEXT    NOT NULL DEFAULT '',
	labels     TEXT    NOT NULL DEFAULT '',
	created_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_page ON history(page_id);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`

const selectColumns = `id, action, page_id, title, space_key, parent_id, url, version, source, labels, created_at`

var _ storage.Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements storage.Storage.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}
	s := &SQLiteStorage{db: db, now: time.Now}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying SQLite connection.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite storage: create schema: %w", err)
	}
	return nil
}

// Record inserts an entry and returns its id. A zero CreatedAt is set to now.
func (s *SQLiteStorage) Record(ctx context.Context, e storage.Entry) (int64, error) {
	if strings.TrimSpace(e.PageID) == "" || !validActions[string(e.Action)] {
		return 0, fmt.Errorf("%w: page id %q, action %q", storage.ErrInvalidEntry, e.PageID, e.Action)
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (action, page_id, title, space_key, parent_id, url, version, source, labels, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Action), e.PageID, e.Title, e.SpaceKey, e.ParentID, e.URL, e.Version, e.Source,
		strings.Join(e.Labels, ","), created.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite storage: record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite storage: record id: %w", err)
	}
	colors.StructuredDebug("history", "record", "completed", nil, e.PageID, colors.Fields("action", e.Action, "entry_id", id))
	return id, nil
}

// List returns matching entries, newest first.
func (s *SQLiteStorage) List(ctx context.Context, f storage.Filter) ([]storage.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.SpaceKey != "" {
		where = append(where, "space_key = ?")
		args = append(args, f.SpaceKey)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeFormat))
	}
	query := "SELECT " + selectColumns + " FROM history"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: list: %w", err)
	}
	defer rows.Close()

	var entries []storage.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite storage: list: %w", err)
	}
	return entries, nil
}

// LastForPage returns the most recent entry for a page.
func (s *SQLiteStorage) LastForPage(ctx context.Context, pageID string) (storage.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM history WHERE page_id = ? ORDER BY created_at DESC, id DESC LIMIT 1", pageID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Entry{}, fmt.Errorf("%w: page %s", storage.ErrNotFound, pageID)
	}
	return e, err
}

// Prune removes entries older than daysThreshold days. Zero removes everything.
func (s *SQLiteStorage) Prune(ctx context.Context, daysThreshold int, dryRun bool) (int64, error) {
	if daysThreshold < 0 {
		return 0, fmt.Errorf("sqlite storage: %w", ErrInvalidDays)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -daysThreshold).Format(timeFormat)
	if daysThreshold == 0 {
		cutoff = "9999-12-31T23:59:59Z"
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history WHERE created_at < ?", cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite storage: count for prune: %w", err)
	}
	if dryRun || count == 0 {
		return count, nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE created_at < ?", cutoff); err != nil {
		return 0, fmt.Errorf("sqlite storage: prune: %w", err)
	}
	colors.StructuredInfo("history", "prune", "completed", nil, "", colors.Fields("deleted", count, "days", daysThreshold))
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (storage.Entry, error) {
	var (
		e       storage.Entry
		action  string
		labels  string
		created string
	)
	err := row.Scan(&e.ID, &action, &e.PageID, &e.Title, &e.SpaceKey, &e.ParentID, &e.URL, &e.Version, &e.Source, &labels, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("sqlite storage: scan: %w", err)
	}
	e.Action = storage.Action(action)
	if labels != "" {
		e.Labels = strings.Split(labels, ",")
	}
	if t, err := time.Parse(timeFormat, created); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}
