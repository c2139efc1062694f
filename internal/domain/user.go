package domain

import (
	"context"
	"time"
)

// User represents a registered account. Email is stored lowercased and is
// unique across the store.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt. A duplicate
	// email returns ErrDuplicateEmail and leaves the existing row untouched.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]User, error)
	// Delete removes the user and, by cascade, every task they own.
	Delete(ctx context.Context, id int64) error
}
