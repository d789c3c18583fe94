// Package users manages service desk members: administrators, technicians and
// technical service managers.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/google/uuid"
)

// Service implements user business logic.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UserInput holds the writable fields of a user.
type UserInput struct {
	Username string
	Role     domain.Role
	Group    *domain.Group
}

func (in UserInput) validate() (UserInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return in, ErrEmptyUsername
	}
	if !in.Role.IsValid() {
		return in, fmt.Errorf("%w: %s", ErrInvalidRole, in.Role)
	}
	if in.Group != nil && !in.Group.IsValid() {
		return in, fmt.Errorf("%w: %s", ErrInvalidGroup, *in.Group)
	}
	return in, nil
}

// CreateUser creates a user with a generated id.
func (s *Service) CreateUser(ctx context.Context, input UserInput) (*domain.User, error) {
	input, err := input.validate()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       uuid.NewString(),
		Username: input.Username,
		Role:     input.Role,
		Group:    input.Group,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers returns users ordered by username.
func (s *Service) ListUsers(ctx context.Context, filter Filter) ([]*domain.User, error) {
	if filter.Role != nil && !filter.Role.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *filter.Role)
	}
	if filter.Group != nil && !filter.Group.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGroup, *filter.Group)
	}
	return s.repo.ListUsers(ctx, filter)
}

// UpdateUser replaces the writable fields of a user.
func (s *Service) UpdateUser(ctx context.Context, id string, input UserInput) (*domain.User, error) {
	input, err := input.validate()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = input.Username
	user.Role = input.Role
	user.Group = input.Group

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user. Incidents assigned to them become unassigned.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}
