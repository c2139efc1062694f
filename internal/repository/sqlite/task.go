package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
)

// TaskRepository implements domain.TaskRepository using SQLite. Every query
// carries the owner's ID in its WHERE clause.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite-backed TaskRepository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db.SqlDB}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if !task.Status.Valid() {
		return fmt.Errorf("%w: %v", domain.ErrInvalidStatus, task.Status)
	}
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, status, created_at)
		 VALUES (?, ?, ?, ?)`,
		task.UserID, task.Title, int(task.Status), now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	task.ID = id
	task.CreatedAt = now
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	t := &domain.Task{}
	var status int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, status, created_at
		 FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID,
	).Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	t.Status = domain.TaskStatus(status)
	return t, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, status, created_at
		 FROM tasks WHERE user_id = ?
		 ORDER BY status ASC, created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var status int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = domain.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, ownerID int64, task *domain.Task) error {
	if !task.Status.Valid() {
		return fmt.Errorf("%w: %v", domain.ErrInvalidStatus, task.Status)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, status = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title, int(task.Status), task.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
