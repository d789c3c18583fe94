package users

import "errors"

// Service errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidGroup  = errors.New("invalid group")
	ErrEmptyUsername = errors.New("username is required")
)
