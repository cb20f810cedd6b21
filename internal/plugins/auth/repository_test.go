package auth

import (
	"context"
	"testing"
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/config"
	"github.com/keyxmakerx/eventhub/internal/database"
)

// newTestRepo opens an in-memory SQLite user store with migrations applied.
func newTestRepo(t *testing.T) UserRepository {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db, config.DriverSQLite); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewUserRepository(db)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	user := &User{ID: "user-1", Email: "a@example.com", Name: "Ann", PasswordHash: "hash", CreatedAt: created}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byEmail, err := repo.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail.ID != "user-1" || byEmail.Name != "Ann" || byEmail.PasswordHash != "hash" {
		t.Errorf("got %+v", byEmail)
	}
	if !byEmail.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", byEmail.CreatedAt, created)
	}
	if byEmail.LastLoginAt != nil {
		t.Error("expected no last login yet")
	}

	byID, err := repo.FindByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Email != "a@example.com" {
		t.Errorf("got %+v", byID)
	}

	exists, err := repo.EmailExists(ctx, "a@example.com")
	if err != nil || !exists {
		t.Errorf("EmailExists = %v, %v", exists, err)
	}
	exists, err = repo.EmailExists(ctx, "b@example.com")
	if err != nil || exists {
		t.Errorf("EmailExists(other) = %v, %v", exists, err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	if !apperror.Is(err, apperror.TypeNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
	_, err = repo.FindByID(context.Background(), "missing")
	if !apperror.Is(err, apperror.TypeNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	if err := repo.Create(ctx, &User{ID: "u1", Email: "a@example.com", PasswordHash: "h", CreatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &User{ID: "u2", Email: "a@example.com", PasswordHash: "h", CreatedAt: now}); err == nil {
		t.Error("expected unique email violation")
	}
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, &User{ID: "u1", Email: "a@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateLastLogin(ctx, "u1"); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	user, err := repo.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user.LastLoginAt == nil {
		t.Error("expected last login to be set")
	}
}
