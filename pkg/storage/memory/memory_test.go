package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/askframe/askframe/pkg/history"
	"github.com/askframe/askframe/pkg/storage"
)

func session(i int) *storage.Session {
	return &storage.Session{
		ID:        fmt.Sprintf("sess_%03d", i),
		Name:      fmt.Sprintf("dataset %d", i),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		Window:    history.NewWindow(10),
	}
}

func TestCreateAndGet(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	want := session(1)
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Error("Get should return the live session pointer")
	}
}

func TestCreateConflict(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.Create(ctx, session(1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, session(1)); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate Create = %v, want ErrConflict", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New(0)
	if _, err := s.Get(context.Background(), "sess_missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Create(ctx, session(i)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	sessions, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("len = %d, want 3", len(sessions))
	}
	for i := 0; i < 2; i++ {
		if sessions[i].CreatedAt.Before(sessions[i+1].CreatedAt) {
			t.Errorf("sessions not newest first: %s before %s", sessions[i].ID, sessions[i+1].ID)
		}
	}
}

func TestDelete(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	sess := session(1)
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, sess.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestEviction(t *testing.T) {
	s := New(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Create(ctx, session(i)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	// Sessions 0 and 1 were evicted.
	for i := 0; i < 2; i++ {
		if _, err := s.Get(ctx, fmt.Sprintf("sess_%03d", i)); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("session %d should be evicted, got %v", i, err)
		}
	}
	for i := 2; i < 5; i++ {
		if _, err := s.Get(ctx, fmt.Sprintf("sess_%03d", i)); err != nil {
			t.Errorf("session %d should survive, got %v", i, err)
		}
	}
}

func TestEvictionRespectsDeletes(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	if err := s.Create(ctx, session(0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, session(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "sess_000"); err != nil {
		t.Fatal(err)
	}

	// The deleted slot frees capacity; session 1 must not be evicted.
	if err := s.Create(ctx, session(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "sess_001"); err != nil {
		t.Errorf("session 1 should survive, got %v", err)
	}
}
