package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns validator errors into a single readable sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body."
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// RegisterRequest is the body of POST /api/auth/register. Length limits
// apply after normalize.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (req *RegisterRequest) normalize() {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateTaskRequest is the body of POST /api/tasks. The title is checked
// after trimming, the same way a title update is.
type CreateTaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

func (req *CreateTaskRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserDTO is the JSON representation of a user. It never carries the
// password hash.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}

// TaskDTO is the JSON representation of a task.
type TaskDTO struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status.String(),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTaskDTOs(tasks []domain.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = toTaskDTO(&tasks[i])
	}
	return dtos
}
