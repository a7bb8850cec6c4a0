package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobhunter-backend/auth-service/internal/domain"
	"github.com/jobhunter-backend/auth-service/internal/service"
	"github.com/jobhunter-backend/auth-service/pkg/response"
)

const identityContextKey = "identity"

// openPathPrefix is always reachable for authenticated users regardless of
// their permission set, so a fresh account can manage its own session.
const openPathPrefix = "/api/v1/auth"

// RouteMeta controls how the gate treats a route
type RouteMeta struct {
	// Public routes skip authentication entirely
	Public bool
	// SkipPermission routes require a valid token but no permission entry
	SkipPermission bool
}

// Gate authenticates requests and enforces route permissions. Routes are
// keyed by method and the route template they were registered under.
type Gate struct {
	auth   service.AuthService
	routes map[string]RouteMeta
	log    *zap.Logger
}

// NewGate creates a new Gate
func NewGate(auth service.AuthService, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		auth:   auth,
		routes: make(map[string]RouteMeta),
		log:    log,
	}
}

// Describe registers route metadata. Routes without metadata get the default
// treatment: authentication plus a permission check.
func (g *Gate) Describe(method, path string, meta RouteMeta) {
	g.routes[routeKey(method, path)] = meta
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Handle returns the gin middleware enforcing authentication and permissions
func (g *Gate) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := g.routes[routeKey(c.Request.Method, c.FullPath())]
		if meta.Public {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, response.CodeUnauthenticated, "authentication required")
			c.Abort()
			return
		}

		claims, err := g.auth.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, response.CodeUnauthenticated, "access token is invalid or expired")
			c.Abort()
			return
		}

		permissions, err := g.auth.ResolvePermissions(c.Request.Context(), claims.Role)
		if err != nil {
			g.log.Error("permission lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
			response.InternalError(c)
			c.Abort()
			return
		}

		identity := &domain.Identity{
			ID:          claims.UserID,
			Name:        claims.Name,
			Email:       claims.Email,
			RoleID:      claims.Role,
			Permissions: permissions,
		}
		c.Set(identityContextKey, identity)

		if meta.SkipPermission {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if strings.HasPrefix(path, openPathPrefix) {
			c.Next()
			return
		}

		if !identity.HasPermission(c.Request.Method, path) {
			g.log.Info("permission denied",
				zap.String("user_id", identity.ID),
				zap.String("method", c.Request.Method),
				zap.String("path", path))
			response.Forbidden(c, "you do not have permission to access this endpoint")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IdentityFromContext returns the authenticated identity set by the gate
func IdentityFromContext(c *gin.Context) (*domain.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*domain.Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}
