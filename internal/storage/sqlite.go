package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sketchflow/internal/diagram"
)

// ErrNotFound is returned when no entry exists for the requested ID.
var ErrNotFound = errors.New("history entry not found")

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT,
			thumbnail TEXT,
			elements JSON,
			created_at INTEGER,
			updated_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_updated ON history(updated_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	elements, err := json.Marshal(entry.Elements)
	if err != nil {
		return fmt.Errorf("failed to encode elements: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, title, description, thumbnail, elements, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			thumbnail=excluded.thumbnail,
			elements=excluded.elements,
			updated_at=excluded.updated_at
	`, entry.ID, entry.Title, entry.Description, entry.Thumbnail, elements, entry.CreatedAt, entry.UpdatedAt)

	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, description, thumbnail, elements, created_at, updated_at FROM history WHERE id = ?", id)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := "SELECT id, title, description, thumbnail, elements, created_at, updated_at FROM history ORDER BY updated_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var entry Entry
	var elements []byte
	if err := scan(&entry.ID, &entry.Title, &entry.Description, &entry.Thumbnail,
		&elements, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	if len(elements) > 0 {
		if err := json.Unmarshal(elements, &entry.Elements); err != nil {
			return nil, fmt.Errorf("failed to decode elements: %w", err)
		}
	}
	if entry.Elements == nil {
		entry.Elements = []diagram.Element{}
	}
	return &entry, nil
}
