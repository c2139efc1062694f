package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/repository/sqlite"
	"github.com/devrayanco/task-manager-api/internal/service"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), service.NewPasswordHasher(4), newTokenService(t, testTokenConfig(), nil))
	return auth, db
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  alice ", " Alice@X.com ", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.Username != "alice" || user.Email != "alice@x.com" {
		t.Fatalf("expected normalized username/email, got %q / %q", user.Username, user.Email)
	}

	stored, err := db.Users().GetByEmail(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if stored.PasswordHash == "secret123" || strings.Contains(stored.PasswordHash, "secret123") {
		t.Fatal("password must not be stored in plaintext")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "first", "dup@example.com", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, "second", "DUP@Example.com", "password456")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	users, err := db.Users().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 1 || users[0].Username != "first" {
		t.Fatalf("expected exactly the first user to remain, got %+v", users)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@b.com", "password123"},
		{"blank username", "   ", "a@b.com", "password123"},
		{"empty email", "name", "", "password123"},
		{"malformed email", "name", "not-an-email", "password123"},
		{"display-name email", "name", "Bob <bob@x.com>", "password123"},
		{"empty password", "name", "a@b.com", ""},
		{"short password", "name", "a@b.com", "abc"},
		{"long password", "name", "a@b.com", strings.Repeat("p", 73)},
		{"long username", strings.Repeat("u", 101), "a@b.com", "password123"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.username, tc.email, tc.password)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "alice", "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := auth.Login(ctx, "A@X.COM", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if res.User.ID != registered.ID || res.User.Username != "alice" {
		t.Fatalf("unexpected login user: %+v", res.User)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "user", "wrongpw@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := auth.Login(ctx, "wrongpw@example.com", "wrongpassword")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "jwt", "jwt@example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := auth.Login(ctx, "jwt@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user ID %d, got %d", user.ID, got.ID)
	}

	if _, err := auth.Authenticate(ctx, "not-a-valid-jwt"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}
}

func TestAuthService_Authenticate_RemovedUser(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "gone", "gone@example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := auth.Login(ctx, "gone@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := service.NewUserService(db.Users()).Remove(ctx, user.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := auth.Authenticate(ctx, res.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for removed user, got %v", err)
	}
}
