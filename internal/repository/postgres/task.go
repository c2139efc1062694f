package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository implements domain.TaskRepository with Postgres. Every
// statement filters on user_id.
type TaskRepository struct {
	db *pgxpool.Pool
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if !task.Status.Valid() {
		return fmt.Errorf("%w: %v", domain.ErrInvalidStatus, task.Status)
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		task.UserID, task.Title, int16(task.Status),
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	t := &domain.Task{}
	var status int16
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, title, status, created_at
		 FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID,
	).Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	t.Status = domain.TaskStatus(status)
	return t, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, title, status, created_at
		 FROM tasks WHERE user_id = $1
		 ORDER BY status ASC, created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var status int16
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
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $1, status = $2
		 WHERE id = $3 AND user_id = $4`,
		task.Title, int16(task.Status), task.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
