package dto

import (
	"regexp"
	"unicode"

	"github.com/jobhunter-backend/auth-service/internal/domain"
)

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2"`
	Age      int    `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
}

// ValidatePassword validates password strength requirements:
// - At least 8 characters
// - At least one uppercase letter
// - At least one lowercase letter
// - At least one digit
func (r *RegisterRequest) ValidatePassword() (bool, string) {
	password := r.Password

	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	if len(password) > 72 {
		return false, "Password must not exceed 72 characters"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}

	if !hasUpper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !hasDigit {
		return false, "Password must contain at least one digit"
	}

	return true, ""
}

// ValidateEmail validates email format more strictly
func (r *RegisterRequest) ValidateEmail() (bool, string) {
	// RFC 5322 compliant email regex (simplified)
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(r.Email) {
		return false, "Invalid email format"
	}
	return true, ""
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse returns only the created account's id and creation time,
// never the password hash or activation code
type RegisterResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// SessionResponse represents the body of login, refresh and activation responses.
// The refresh token itself travels in an HTTP-only cookie, not in the body.
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// UserResponse represents user data in response
type UserResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        string              `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
}

// NewUserResponse builds a UserResponse from an identity
func NewUserResponse(identity *domain.Identity) UserResponse {
	return UserResponse{
		ID:          identity.ID,
		Email:       identity.Email,
		Name:        identity.Name,
		Role:        identity.RoleID,
		Permissions: identity.Permissions,
	}
}

// NewSessionResponse builds a SessionResponse from a domain session
func NewSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		AccessToken: s.AccessToken,
		ExpiresIn:   s.ExpiresIn,
		User: UserResponse{
			ID:          s.Identity.ID,
			Email:       s.Identity.Email,
			Name:        s.Identity.Name,
			Role:        s.Identity.RoleID,
			Permissions: s.Identity.Permissions,
		},
	}
}
