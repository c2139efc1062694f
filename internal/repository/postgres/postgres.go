// Package postgres is the Postgres-backed credential store, selected with
// DB_DRIVER=postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/repository/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DB wraps a pgx connection pool and hands out the repositories backed by it.
type DB struct {
	Pool *pgxpool.Pool

	users *UserRepository
	tasks *TaskRepository
}

// New connects to Postgres using dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return &DB{
		Pool:  pool,
		users: &UserRepository{db: pool},
		tasks: &TaskRepository{db: pool},
	}, nil
}

// Migrate runs the embedded goose migrations over a database/sql handle
// borrowed from the pool.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

func (db *DB) Users() domain.UserRepository { return db.users }

func (db *DB) Tasks() domain.TaskRepository { return db.tasks }

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "23505"
	}
	return false
}
