package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jobhunter-backend/auth-service/internal/domain"
	"github.com/jobhunter-backend/auth-service/internal/dto"
	"github.com/jobhunter-backend/auth-service/internal/service"
)

// stubAuthService validates tokens against a fixed table
type stubAuthService struct {
	tokens      map[string]*service.TokenClaims
	permissions map[string][]domain.Permission
}

func (s *stubAuthService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*domain.Session, error) {
	return nil, nil
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return nil, nil
}

func (s *stubAuthService) Logout(ctx context.Context, userID string) error {
	return nil
}

func (s *stubAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	return nil, nil
}

func (s *stubAuthService) Activate(ctx context.Context, code string) (*domain.Session, error) {
	return nil, nil
}

func (s *stubAuthService) GetIdentity(ctx context.Context, userID string) (*domain.Identity, error) {
	return nil, nil
}

func (s *stubAuthService) ResolvePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	return s.permissions[roleID], nil
}

func (s *stubAuthService) ValidateAccessToken(token string) (*service.TokenClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return claims, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *Gate) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := &stubAuthService{
		tokens: map[string]*service.TokenClaims{
			"user-token": {
				UserID: "user-1",
				Name:   "Test User",
				Email:  "user@example.com",
				Role:   "role-normal",
			},
			"admin-token": {
				UserID: "admin-1",
				Name:   "Admin",
				Email:  "admin@example.com",
				Role:   "role-admin",
			},
		},
		permissions: map[string][]domain.Permission{
			"role-normal": {
				{ID: "p1", Method: "GET", Path: "/api/v1/jobs"},
			},
			"role-admin": {
				{ID: "p1", Method: "GET", Path: "/api/v1/jobs"},
				{ID: "p2", Method: "POST", Path: "/api/v1/jobs"},
			},
		},
	}

	gate := NewGate(auth, nil)
	router := gin.New()
	router.Use(gate.Handle())

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

	gate.Describe("GET", "/api/v1/auth/refresh", RouteMeta{Public: true})
	router.GET("/api/v1/auth/refresh", ok)

	gate.Describe("GET", "/api/v1/auth/account", RouteMeta{SkipPermission: true})
	router.GET("/api/v1/auth/account", func(c *gin.Context) {
		identity, exists := IdentityFromContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.ID})
	})

	router.GET("/api/v1/jobs", ok)
	router.POST("/api/v1/jobs", ok)

	// Default treatment, no Describe entry
	router.POST("/api/v1/auth/sessions", ok)

	return router, gate
}

func request(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGate_PublicRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, "GET", "/api/v1/auth/refresh", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGate_MissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, "GET", "/api/v1/jobs", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGate_InvalidToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, "GET", "/api/v1/jobs", "garbage")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGate_MalformedAuthorizationHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	req.Header.Set("Authorization", "user-token") // no Bearer prefix
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGate_PermissionGranted(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, "GET", "/api/v1/jobs", "user-token")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGate_PermissionDenied(t *testing.T) {
	router, _ := newTestRouter(t)

	// role-normal has no POST permission
	w := request(router, "POST", "/api/v1/jobs", "user-token")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// role-admin does
	w = request(router, "POST", "/api/v1/jobs", "admin-token")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGate_SkipPermissionRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	// No permission entry for the account route, but SkipPermission lets an
	// authenticated user through
	w := request(router, "GET", "/api/v1/auth/account", "user-token")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	// Still requires authentication
	w = request(router, "GET", "/api/v1/auth/account", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGate_AuthPrefixAlwaysAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	// role-normal holds no POST permission anywhere, but authenticated users
	// may always reach routes under /api/v1/auth
	w := request(router, "POST", "/api/v1/auth/sessions", "user-token")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	// The allowance does not waive authentication
	w = request(router, "POST", "/api/v1/auth/sessions", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGate_IdentityInContext(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, "GET", "/api/v1/auth/account", "user-token")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); !strings.Contains(body, "user-1") {
		t.Errorf("body = %s, want it to contain user-1", body)
	}
}
