package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobhunter-backend/auth-service/internal/di"
	"github.com/jobhunter-backend/auth-service/internal/middleware"
	"github.com/jobhunter-backend/auth-service/internal/notifier"
	"github.com/jobhunter-backend/auth-service/internal/service"
	"github.com/jobhunter-backend/auth-service/pkg/config"
	"github.com/jobhunter-backend/auth-service/pkg/database"
	"github.com/jobhunter-backend/auth-service/pkg/logger"
	"github.com/jobhunter-backend/auth-service/pkg/metrics"
	"github.com/jobhunter-backend/auth-service/pkg/redis"
	"github.com/jobhunter-backend/auth-service/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	appLog := logger.Init(level)
	defer logger.Sync()

	appLog.Info("Starting auth service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize Redis for login lockout counters. The service still runs
	// without it, minus the lockout protection.
	var cache *redis.Client
	cache, err = redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		appLog.Warn("Redis unavailable, login lockout disabled", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
		appLog.Info("Redis connected")
	}

	// Initialize the activation notifier
	var activationNotifier service.Notifier = service.NoopNotifier{}
	if cfg.Kafka.Enabled {
		kafkaNotifier, err := notifier.NewKafkaNotifier(ctx, &notifier.KafkaNotifierConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Kafka.ActivationTopic,
		}, appLog.Logger)
		if err != nil {
			appLog.Fatal("Kafka connection failed", zap.Error(err))
		}
		defer kafkaNotifier.Close()
		activationNotifier = kafkaNotifier
		appLog.Info("Kafka connected", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Notifier: activationNotifier,
		Logger:   appLog.Logger,
	})

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := buildRouter(cfg, container)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info("Auth service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}

// buildRouter wires middleware and routes. Every route is registered with the
// gate so its authentication treatment is explicit.
func buildRouter(cfg *config.Config, container *di.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}
	router.Use(metrics.Middleware())
	router.Use(container.RateLimiter.Handle())
	router.Use(container.Gate.Handle())

	gate := container.Gate

	// Operational endpoints
	gate.Describe("GET", "/health", middleware.RouteMeta{Public: true})
	router.GET("/health", container.HealthHandler.Health)
	gate.Describe("GET", "/ready", middleware.RouteMeta{Public: true})
	router.GET("/ready", container.HealthHandler.Ready)
	gate.Describe("GET", "/metrics", middleware.RouteMeta{Public: true})
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	auth := v1.Group("/auth")
	{
		gate.Describe("POST", "/api/v1/auth/register", middleware.RouteMeta{Public: true})
		auth.POST("/register", container.AuthHandler.Register)

		gate.Describe("POST", "/api/v1/auth/login", middleware.RouteMeta{Public: true})
		auth.POST("/login", container.AuthHandler.Login)

		// Refresh authenticates with the cookie, not the access token
		gate.Describe("GET", "/api/v1/auth/refresh", middleware.RouteMeta{Public: true})
		auth.GET("/refresh", container.AuthHandler.Refresh)

		gate.Describe("GET", "/api/v1/auth/activate/:code", middleware.RouteMeta{Public: true})
		auth.GET("/activate/:code", container.AuthHandler.Activate)

		gate.Describe("POST", "/api/v1/auth/logout", middleware.RouteMeta{SkipPermission: true})
		auth.POST("/logout", container.AuthHandler.Logout)

		gate.Describe("GET", "/api/v1/auth/account", middleware.RouteMeta{SkipPermission: true})
		auth.GET("/account", container.AuthHandler.Account)
	}

	return router
}
