package service

import "github.com/devrayanco/task-manager-api/internal/domain"

// ApplyStatus parses text against the closed status set and, only on
// success, sets it on task. Any status may follow any other.
func ApplyStatus(task *domain.Task, text string) error {
	status, err := domain.ParseTaskStatus(text)
	if err != nil {
		return err
	}
	task.Status = status
	return nil
}

// ApplyTitle replaces the title if the new one is acceptable; otherwise task
// is left unchanged.
func ApplyTitle(task *domain.Task, title string) error {
	normalized, err := domain.NormalizeTitle(title)
	if err != nil {
		return err
	}
	task.Title = normalized
	return nil
}
