package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/authflow/identity/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u := engine.User{ID: "u1", Email: "alice@example.com", Name: "Alice", PasswordHash: "h1", CreatedAt: created}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Name != u.Name || byEmail.PasswordHash != u.PasswordHash || !byEmail.CreatedAt.Equal(created) {
		t.Fatalf("got %+v, want %+v", byEmail, u)
	}
	byID, err := store.GetUserByID(ctx, "u1")
	if err != nil || byID.Email != u.Email {
		t.Fatalf("GetUserByID: %+v err=%v", byID, err)
	}

	if err := store.CreateUser(ctx, engine.User{ID: "u2", Email: "alice@example.com", Name: "Other", PasswordHash: "h"}); !errors.Is(err, engine.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, engine.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := store.UpdatePasswordHash(ctx, "missing", "h"); !errors.Is(err, engine.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.CreateUser(ctx, engine.User{ID: "u1", Email: "a@example.com", Name: "A", PasswordHash: "old", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdatePasswordHash(ctx, "u1", "new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	u, err := store.GetUserByID(ctx, "u1")
	if err != nil || u.PasswordHash != "new" {
		t.Fatalf("expected new hash, got %+v err=%v", u, err)
	}
}

func TestOpenMemoryAndReopen(t *testing.T) {
	mem, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer mem.Close()
	if err := mem.CreateUser(context.Background(), engine.User{ID: "u", Email: "m@example.com", Name: "M", PasswordHash: "h"}); err != nil {
		t.Fatalf("CreateUser in memory: %v", err)
	}

	path := filepath.Join(t.TempDir(), "persist.db")
	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.CreateUser(context.Background(), engine.User{ID: "p", Email: "p@example.com", Name: "P", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.GetUserByEmail(context.Background(), "p@example.com"); err != nil {
		t.Fatalf("expected persisted user, got %v", err)
	}

	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}
