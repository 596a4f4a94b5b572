package storage

import (
	"context"

	"sketchflow/internal/diagram"
)

// Entry is one persisted diagram with its display metadata. Only finalized,
// already-parsed diagrams are stored; raw stream buffers never reach here.
type Entry struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	Elements    []diagram.Element `json:"elements"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
}

// Store persists diagram history.
type Store interface {
	// Save upserts an entry. An empty ID is assigned a fresh one; the
	// assigned ID is reflected on the passed entry.
	Save(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*Entry, error)

	// Delete removes an entry by ID.
	Delete(ctx context.Context, id string) error

	Close() error
}
