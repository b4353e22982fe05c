package store

import (
	"errors"
	"testing"

	"github.com/rookpress/bookstall/internal/database"
)

func setupTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupTestDB(t)

	u, err := us.Create("alice@example.com", "Alice", "$2a$10$fakehash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero id")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("password_hash = %q, want stored hash", u.PasswordHash)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupTestDB(t)

	if _, err := us.Create("alice@example.com", "Alice", "h1"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("alice@example.com", "Alice Again", "h2")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupTestDB(t)

	created, _ := us.Create("bob@example.com", "Bob", "h")
	u, err := us.GetByEmail("bob@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	us := setupTestDB(t)

	u, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserGetByID(t *testing.T) {
	us := setupTestDB(t)

	created, _ := us.Create("carol@example.com", "Carol", "h")
	u, err := us.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u == nil || u.Email != "carol@example.com" {
		t.Errorf("got %+v, want carol@example.com", u)
	}

	missing, err := us.GetByID(created.ID + 100)
	if err != nil {
		t.Fatalf("get missing id: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}
