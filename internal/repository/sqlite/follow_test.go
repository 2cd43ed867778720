package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/aurabetz/internal/apperror"
)

func TestFollowCreateGet(t *testing.T) {
	db, _ := newTestDB(t)
	f := db.Follows()
	ctx := context.Background()

	m, err := f.Create(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID != "u1_p1" {
		t.Errorf("ID = %q, want %q", m.ID, "u1_p1")
	}
	if m.FollowedAt.IsZero() {
		t.Error("FollowedAt not set")
	}

	got, err := f.Get(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" || got.PickID != "p1" || !got.FollowedAt.Equal(m.FollowedAt) {
		t.Errorf("Get() = %+v, want %+v", got, m)
	}
}

func TestFollowGet_NotFound(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.Follows().Get(context.Background(), "u1", "p1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFollowCreate_Duplicate(t *testing.T) {
	db, _ := newTestDB(t)
	f := db.Follows()
	ctx := context.Background()

	if _, err := f.Create(ctx, "u1", "p1"); err != nil {
		t.Fatalf("Create() first: %v", err)
	}
	_, err := f.Create(ctx, "u1", "p1")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate error = %v, want ErrConflict", err)
	}

	n, err := f.CountByPick(ctx, "p1")
	if err != nil {
		t.Fatalf("CountByPick() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountByPick() = %d, want 1", n)
	}
}

func TestFollowDelete_Idempotent(t *testing.T) {
	db, _ := newTestDB(t)
	f := db.Follows()
	ctx := context.Background()

	if _, err := f.Create(ctx, "u1", "p1"); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.Delete(ctx, "u1", "p1"); err != nil {
			t.Fatalf("Delete() #%d error = %v", i+1, err)
		}
	}
	if _, err := f.Get(ctx, "u1", "p1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestFollowCountByPick(t *testing.T) {
	db, _ := newTestDB(t)
	f := db.Follows()
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2", "u3"} {
		if _, err := f.Create(ctx, uid, "p1"); err != nil {
			t.Fatalf("Create(%s): %v", uid, err)
		}
	}
	if _, err := f.Create(ctx, "u1", "p2"); err != nil {
		t.Fatalf("Create(u1, p2): %v", err)
	}

	tests := []struct {
		pickID string
		want   int
	}{
		{"p1", 3},
		{"p2", 1},
		{"p3", 0},
	}
	for _, tt := range tests {
		got, err := f.CountByPick(ctx, tt.pickID)
		if err != nil {
			t.Fatalf("CountByPick(%s) error = %v", tt.pickID, err)
		}
		if got != tt.want {
			t.Errorf("CountByPick(%s) = %d, want %d", tt.pickID, got, tt.want)
		}
	}
}
