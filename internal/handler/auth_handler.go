package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobhunter-backend/auth-service/internal/dto"
	"github.com/jobhunter-backend/auth-service/internal/middleware"
	"github.com/jobhunter-backend/auth-service/internal/service"
	"github.com/jobhunter-backend/auth-service/pkg/metrics"
	"github.com/jobhunter-backend/auth-service/pkg/response"
)

// RefreshCookieName is the cookie carrying the refresh token. The token never
// appears in a response body.
const RefreshCookieName = "refresh_token"

// CookieConfig holds refresh cookie settings
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
	cookies     *CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, cookies *CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if valid, msg := req.ValidateEmail(); !valid {
		response.BadRequest(c, msg)
		return
	}
	if valid, msg := req.ValidatePassword(); !valid {
		response.BadRequest(c, msg)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			response.Error(c, http.StatusConflict, response.CodeDuplicateEmail, "email is already registered")
			return
		}
		response.InternalError(c)
		return
	}

	metrics.RecordRegistration()
	response.Created(c, dto.RegisterResponse{
		ID:        user.ID,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.RecordLogin("invalid_credentials")
			response.Unauthorized(c, response.CodeInvalidCredentials, "invalid email or password")
		case errors.Is(err, service.ErrAccountNotActivated):
			metrics.RecordLogin("not_activated")
			response.Error(c, http.StatusForbidden, response.CodeAccountNotActivated, "account has not been activated")
		case errors.Is(err, service.ErrTooManyAttempts):
			metrics.RecordLogin("locked_out")
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyAttempts, "too many failed login attempts, try again later")
		default:
			response.InternalError(c)
		}
		return
	}

	metrics.RecordLogin("success")
	h.setRefreshCookie(c, session.RefreshToken)
	response.Success(c, dto.NewSessionResponse(session))
}

// Refresh rotates the refresh token from the cookie
// GET /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(RefreshCookieName)
	if err != nil || token == "" {
		metrics.RecordRefresh("invalid")
		response.Unauthorized(c, response.CodeInvalidRefreshToken, "refresh token is missing")
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			metrics.RecordRefresh("invalid")
			h.clearRefreshCookie(c)
			response.Unauthorized(c, response.CodeInvalidRefreshToken, "refresh token is invalid or expired")
			return
		}
		response.InternalError(c)
		return
	}

	metrics.RecordRefresh("success")
	h.setRefreshCookie(c, session.RefreshToken)
	response.Success(c, dto.NewSessionResponse(session))
}

// Logout clears the stored refresh token and the cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, response.CodeUnauthenticated, "authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.ID); err != nil {
		response.InternalError(c)
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, gin.H{"message": "logged out"})
}

// Activate consumes an activation code and opens a session
// GET /api/v1/auth/activate/:code
func (h *AuthHandler) Activate(c *gin.Context) {
	session, err := h.authService.Activate(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidActivationCode) {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidActivationCode, "activation code is invalid")
			return
		}
		response.InternalError(c)
		return
	}

	metrics.RecordActivation()
	h.setRefreshCookie(c, session.RefreshToken)
	response.Success(c, dto.NewSessionResponse(session))
}

// Account returns the authenticated user's identity and permissions
// GET /api/v1/auth/account
func (h *AuthHandler) Account(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, response.CodeUnauthenticated, "authentication required")
		return
	}

	fresh, err := h.authService.GetIdentity(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, response.CodeUnauthenticated, "account no longer exists")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, dto.NewUserResponse(fresh))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, token, int(h.cookies.MaxAge.Seconds()), "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
}
