package domain

import "context"

// Database defines lifecycle operations for the underlying credential store.
// Each implementation (SQLite, Postgres) owns its own migration files and
// strategy, so the whole persistence backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
	Users() UserRepository
	Tasks() TaskRepository
}
