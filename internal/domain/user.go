package domain

import (
	"time"
)

// AccountStatus represents the activation state of an account
type AccountStatus string

const (
	StatusPendingActivate AccountStatus = "pending_activate"
	StatusActivated       AccountStatus = "activated"
)

// DefaultRoleName is the role assigned to self-registered accounts
const DefaultRoleName = "NORMAL_USER"

// User represents a user account
type User struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"` // Never serialize password
	Name           string        `json:"name"`
	Age            int           `json:"age"`
	Gender         string        `json:"gender"`
	Address        string        `json:"address"`
	RoleID         string        `json:"role_id"`
	AccountStatus  AccountStatus `json:"account_status"`
	ActivationCode string        `json:"-"` // One-time code, cleared on activation
	RefreshToken   string        `json:"-"` // Single valid refresh token, rotated on every refresh
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Role groups a set of endpoint permissions
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is an allow-listed method+path pair a role may invoke
type Permission struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Identity is the transient projection attached to a session.
// Permissions are resolved at login/refresh time, never persisted on the account.
type Identity struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	RoleID      string       `json:"role_id"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission reports whether the identity may invoke method+path
func (i *Identity) HasPermission(method, path string) bool {
	for _, p := range i.Permissions {
		if p.Method == method && p.Path == path {
			return true
		}
	}
	return false
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expires
}

// Session is the result of a successful login, refresh or activation
type Session struct {
	TokenPair
	Identity Identity `json:"user"`
}
