// Package memory provides an in-memory SessionStore. Sessions live for
// the process lifetime and are lost on restart; an optional capacity
// evicts the oldest session when the limit is reached.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/askframe/askframe/pkg/storage"
)

// Store is an in-memory SessionStore with optional FIFO eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	order    *list.List // front = oldest
	maxSize  int        // 0 = unlimited
}

type entry struct {
	sess *storage.Session
	elem *list.Element
}

// Ensure Store implements storage.SessionStore at compile time.
var _ storage.SessionStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit; otherwise the oldest session is evicted when the limit
// is reached.
func New(maxSize int) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		order:    list.New(),
		maxSize:  maxSize,
	}
}

// Create persists a session in memory.
func (s *Store) Create(_ context.Context, sess *storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return storage.ErrConflict
	}
	if s.maxSize > 0 && len(s.sessions) >= s.maxSize {
		s.evictOldest()
	}
	elem := s.order.PushBack(sess.ID)
	s.sessions[sess.ID] = &entry{sess: sess, elem: elem}
	return nil
}

// Get retrieves a session by ID.
func (s *Store) Get(_ context.Context, id string) (*storage.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e.sess, nil
}

// List returns all sessions, newest first.
func (s *Store) List(_ context.Context) ([]*storage.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*storage.Session, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e.sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete destroys a session and its window.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.order.Remove(e.elem)
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evictOldest removes the oldest session. Caller holds the write lock.
func (s *Store) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}
	id := front.Value.(string)
	s.order.Remove(front)
	delete(s.sessions, id)
}
