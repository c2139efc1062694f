package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/devrayanco/task-manager-api/internal/repository/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a SQLite connection and hands out the repositories backed by it.
type DB struct {
	SqlDB *sql.DB

	users *UserRepository
	tasks *TaskRepository
}

// New opens a SQLite database at the given path and configures it for use.
// Foreign keys and WAL mode are set through the DSN so they apply to every
// pooled connection.
func New(dbPath string) (*DB, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	dsn := "file:" + dbPath + "?" + q.Encode()

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = NewUserRepository(db)
	db.tasks = NewTaskRepository(db)
	return db, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() domain.UserRepository { return db.users }

func (db *DB) Tasks() domain.TaskRepository { return db.tasks }

// isUniqueConstraintError reports whether err is a SQLite UNIQUE violation.
func isUniqueConstraintError(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
