package domain

import "time"

// Role represents what a user does in the service desk.
type Role string

// Roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleTSM   Role = "tsm"
)

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleTSM
}

// IsTechnician reports whether incidents can be assigned to users with this role.
func (r Role) IsTechnician() bool {
	return r == RoleUser
}

// User represents a service desk member.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Group     *Group    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
