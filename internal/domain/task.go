package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the closed set of states a task can be in.
type TaskStatus int

const (
	TaskStatusToDo TaskStatus = iota
	TaskStatusInProgress
	TaskStatusDone
)

// MaxTitleLength is the upper bound on a task title, in characters.
const MaxTitleLength = 200

var taskStatusNames = map[TaskStatus]string{
	TaskStatusToDo:       "ToDo",
	TaskStatusInProgress: "InProgress",
	TaskStatusDone:       "Done",
}

func (s TaskStatus) String() string {
	if name, ok := taskStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TaskStatus(%d)", int(s))
}

// Valid reports whether s is one of the declared statuses.
func (s TaskStatus) Valid() bool {
	_, ok := taskStatusNames[s]
	return ok
}

// ParseTaskStatus matches text case-insensitively against the declared
// status names. Anything else yields ErrInvalidStatus.
func ParseTaskStatus(text string) (TaskStatus, error) {
	trimmed := strings.TrimSpace(text)
	for status, name := range taskStatusNames {
		if strings.EqualFold(trimmed, name) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not one of ToDo, InProgress, Done", ErrInvalidStatus, text)
}

// NormalizeTitle trims the title and checks it is 1-200 characters long.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return "", fmt.Errorf("%w: title must be %d characters or fewer", ErrInvalidInput, MaxTitleLength)
	}
	return trimmed, nil
}

// Task is a unit of work owned by exactly one user. UserID never changes
// after creation.
type Task struct {
	ID        int64
	UserID    int64
	Title     string
	Status    TaskStatus
	CreatedAt time.Time
}

// TaskRepository defines persistence operations for tasks. Every method is
// scoped by the owning user's ID; a task that exists under a different owner
// is reported as ErrNotFound.
type TaskRepository interface {
	// Create inserts the task for task.UserID and fills in ID and CreatedAt.
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, ownerID, id int64) (*Task, error)
	// ListByOwner returns tasks ordered by status (ToDo, InProgress, Done)
	// and then newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]Task, error)
	// Update writes Title and Status of the task identified by task.ID.
	Update(ctx context.Context, ownerID int64, task *Task) error
	Delete(ctx context.Context, ownerID, id int64) error
}
