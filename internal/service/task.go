package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"golang.org/x/sync/singleflight"
)

// TaskListCache caches per-owner task listings. Implementations must key
// entries by owner so one user's listing is never served to another.
//
// Listings are versioned: Invalidate moves the owner to a new version, and
// a listing stored under an older version must never be returned for the
// current one.
type TaskListCache interface {
	Version(ctx context.Context, ownerID int64) (int64, error)
	GetList(ctx context.Context, ownerID, version int64) ([]domain.Task, bool, error)
	SetList(ctx context.Context, ownerID, version int64, tasks []domain.Task) error
	Invalidate(ctx context.Context, ownerID int64) error
}

// listFillTimeout bounds a shared cache fill, which no longer follows any
// single caller's context.
const listFillTimeout = 5 * time.Second

// TaskService runs task operations on behalf of an authenticated owner. The
// owner ID is a required argument of every method and is passed through to
// every repository call.
type TaskService struct {
	tasks domain.TaskRepository
	cache TaskListCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If cache is nil, listings always go
// to the store.
func NewTaskService(tasks domain.TaskRepository, cache TaskListCache) *TaskService {
	return &TaskService{tasks: tasks, cache: cache}
}

// List returns the owner's tasks ordered by status, then newest first.
func (s *TaskService) List(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	if s.cache == nil {
		return s.list(ctx, ownerID)
	}

	// The version is read before the store, so a write that lands during
	// the fill moves readers past whatever the fill stores.
	version, err := s.cache.Version(ctx, ownerID)
	if err != nil {
		slog.Warn("task cache version read failed", "owner_id", ownerID, "error", err)
		return s.list(ctx, ownerID)
	}

	key := strconv.FormatInt(ownerID, 10) + ":" + strconv.FormatInt(version, 10)
	ch := s.sf.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listFillTimeout)
		defer cancel()
		return s.fill(fillCtx, ownerID, version)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Task), nil
	}
}

func (s *TaskService) fill(ctx context.Context, ownerID, version int64) ([]domain.Task, error) {
	cached, ok, err := s.cache.GetList(ctx, ownerID, version)
	if err != nil {
		slog.Warn("task cache read failed", "owner_id", ownerID, "error", err)
	} else if ok {
		return cached, nil
	}

	tasks, err := s.list(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, ownerID, version, tasks); err != nil {
		slog.Warn("task cache write failed", "owner_id", ownerID, "error", err)
	}
	return tasks, nil
}

func (s *TaskService) list(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Get returns one of the owner's tasks. A task owned by someone else is
// domain.ErrNotFound, exactly like a missing one.
func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, ownerID, id)
}

// Create adds a ToDo task for the owner.
func (s *TaskService) Create(ctx context.Context, ownerID int64, title string) (*domain.Task, error) {
	task := &domain.Task{UserID: ownerID, Status: domain.TaskStatusToDo}
	if err := ApplyTitle(task, title); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return task, nil
}

// UpdateStatus re-fetches the task under the owner filter and applies the
// requested status text.
func (s *TaskService) UpdateStatus(ctx context.Context, ownerID, id int64, statusText string) error {
	return s.mutate(ctx, ownerID, id, func(task *domain.Task) error {
		return ApplyStatus(task, statusText)
	})
}

// UpdateTitle re-fetches the task under the owner filter and replaces its
// title.
func (s *TaskService) UpdateTitle(ctx context.Context, ownerID, id int64, title string) error {
	return s.mutate(ctx, ownerID, id, func(task *domain.Task) error {
		return ApplyTitle(task, title)
	})
}

// Delete removes one of the owner's tasks.
func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.tasks.GetByID(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *TaskService) mutate(ctx context.Context, ownerID, id int64, apply func(*domain.Task) error) error {
	task, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := apply(task); err != nil {
		return err
	}
	if err := s.tasks.Update(ctx, ownerID, task); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *TaskService) invalidate(ctx context.Context, ownerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		slog.Warn("task cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}
