package service

import (
	"context"
	"fmt"

	"github.com/devrayanco/task-manager-api/internal/domain"
)

// UserService exposes the user directory and administrative removal.
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Remove deletes a user together with all of their tasks.
func (s *UserService) Remove(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}
