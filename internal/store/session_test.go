package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessions_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{
		ID:          "session-1",
		Facing:      "user",
		Orientation: "landscape-primary",
		Width:       1280,
		Height:      720,
	}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("Create() should set StartedAt")
	}

	got, err := repo.GetByID("session-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Facing != "user" || got.Width != 1280 || got.Height != 720 || got.Orientation != "landscape-primary" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil for running session", got.EndedAt)
	}
}

func TestSessions_InvalidFacing(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Create(&Session{ID: "bad", Facing: "sideways", Orientation: "portrait-primary"})
	if err == nil {
		t.Error("Create() should reject unknown facing")
	}
}

func TestSessions_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	repo.Create(&Session{ID: "s", Facing: "environment", Orientation: "portrait-primary", Width: 360, Height: 640})

	if err := repo.End("s"); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	got, err := repo.GetByID("s")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt should be set after End")
	}

	// Ending twice reports not found
	if err := repo.End("s"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}
}

func TestSessions_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := s.Sessions().End("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() error = %v, want ErrNotFound", err)
	}
}

func TestSessions_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		err := repo.Create(&Session{
			ID:          id,
			Facing:      "user",
			Orientation: "landscape-primary",
			Width:       1280,
			Height:      720,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(0) returned %d sessions, want 3", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("List() order = %s,%s,%s, want c,b,a", all[0].ID, all[1].ID, all[2].ID)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d sessions, want 2", len(limited))
	}
}
