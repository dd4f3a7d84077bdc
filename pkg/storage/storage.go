// Package storage defines the session store contract. A Session owns
// exactly one dataset and one context window; no entity is ever shared
// across sessions. Stores hand out live Session pointers; the caller is
// expected to serialize analysis requests per session.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/history"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrConflict is returned when a session with the same ID already exists.
	ErrConflict = errors.New("session already exists")
)

// Session is one analysis session: an immutable dataset plus its bounded
// conversation window.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Dataset   *dataset.Table
	Window    *history.Window
}

// SessionStore manages session lifecycle: created on dataset ingest,
// read on each analysis request, destroyed with its window on deletion.
type SessionStore interface {
	// Create persists a new session. Returns ErrConflict if the ID is taken.
	Create(ctx context.Context, sess *Session) error

	// Get retrieves a session by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Session, error)

	// List returns all sessions ordered by creation time, newest first.
	List(ctx context.Context) ([]*Session, error)

	// Delete destroys a session and its context window.
	// Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}
