package users

import (
	"context"

	"github.com/bissquit/asset-desk/internal/domain"
)

// Repository defines the interface for user data operations.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, filter Filter) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Filter narrows ListUsers. Nil fields match everything.
type Filter struct {
	Role  *domain.Role
	Group *domain.Group
}
