package repository

import (
	"context"

	"github.com/jobhunter-backend/auth-service/internal/domain"
)

// UserRepository defines the interface for user account data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmail checks if a user exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// GetByRefreshToken retrieves the user whose currently stored refresh token
	// equals the given value
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	// GetByActivationCode retrieves the user holding a non-consumed activation code
	GetByActivationCode(ctx context.Context, code string) (*domain.User, error)
	// UpdateRefreshToken unconditionally replaces the stored refresh token.
	// An empty value clears it (logout).
	UpdateRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces the stored refresh token only if it still equals
	// old. Returns false when another rotation won the race.
	SwapRefreshToken(ctx context.Context, userID, old, new string) (bool, error)
	// Activate marks the account activated and clears its activation code
	Activate(ctx context.Context, userID string) error
}

// RoleRepository defines the interface for the role/permission catalog
type RoleRepository interface {
	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	// GetByName retrieves a role by name
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	// PermissionsForRole resolves the permission set granted to a role
	PermissionsForRole(ctx context.Context, roleID string) ([]domain.Permission, error)
}
