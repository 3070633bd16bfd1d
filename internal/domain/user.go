package domain

import (
	"context"
	"fmt"
	"time"
)

// Role is a coarse-grained permission tag attached to a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role tag. An empty tag yields RoleUser, the
// lowest-privilege role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users.
//
// GetByID and GetByEmail are normal reads and leave PasswordHash empty.
// GetCredentialsByEmail is the only read that loads the hash.
// Create must reject a duplicate email with ErrDuplicateEmail atomically.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*User, error)
}
