package di

import (
	"go.uber.org/zap"

	"github.com/jobhunter-backend/auth-service/internal/handler"
	"github.com/jobhunter-backend/auth-service/internal/middleware"
	"github.com/jobhunter-backend/auth-service/internal/repository"
	"github.com/jobhunter-backend/auth-service/internal/service"
	"github.com/jobhunter-backend/auth-service/pkg/config"
	"github.com/jobhunter-backend/auth-service/pkg/database"
	"github.com/jobhunter-backend/auth-service/pkg/redis"
)

// Container holds all dependencies for the auth service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Cache *redis.Client

	// Repositories
	UserRepo repository.UserRepository
	RoleRepo repository.RoleRepository

	// Services
	TokenService *service.TokenService
	AuthService  service.AuthService

	// HTTP layer
	Gate          *middleware.Gate
	RateLimiter   *middleware.RateLimiter
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config   *config.Config
	DB       *database.PostgresDB
	Cache    *redis.Client
	Notifier service.Notifier
	Logger   *zap.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Cache: cfg.Cache,
	}

	c.UserRepo = repository.NewPostgresUserRepository(cfg.DB.Pool())
	c.RoleRepo = repository.NewPostgresRoleRepository(cfg.DB.Pool())

	c.TokenService = service.NewTokenService(&service.TokenConfig{
		AccessSecret:  cfg.Config.JWT.AccessSecret,
		RefreshSecret: cfg.Config.JWT.RefreshSecret,
		AccessTTL:     cfg.Config.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.Config.JWT.RefreshTokenTTL,
		Issuer:        cfg.Config.JWT.Issuer,
	})

	var guard service.LoginGuard
	if cfg.Cache != nil {
		guard = service.NewRedisLoginGuard(
			cfg.Cache,
			cfg.Config.Auth.LockoutMaxFails,
			cfg.Config.Auth.LockoutWindow,
		)
	}

	c.AuthService = service.NewAuthService(
		c.UserRepo,
		c.RoleRepo,
		c.TokenService,
		cfg.Notifier,
		guard,
		&service.AuthServiceConfig{
			BcryptCost:        cfg.Config.Auth.BcryptCost,
			ActivationBaseURL: cfg.Config.Auth.ActivationBaseURL,
		},
		cfg.Logger,
	)

	c.Gate = middleware.NewGate(c.AuthService, cfg.Logger)
	c.RateLimiter = middleware.NewRateLimiter(
		cfg.Config.Auth.RateLimitPerIP,
		cfg.Config.Auth.RateLimitBurst,
	)

	c.AuthHandler = handler.NewAuthHandler(c.AuthService, &handler.CookieConfig{
		Domain: cfg.Config.Auth.CookieDomain,
		Secure: cfg.Config.Auth.CookieSecure,
		MaxAge: cfg.Config.JWT.RefreshTokenTTL,
	})
	c.HealthHandler = handler.NewHealthHandler(cfg.DB, cfg.Cache)

	return c
}
