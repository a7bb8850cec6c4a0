package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jobhunter-backend/auth-service/internal/domain"
	"github.com/jobhunter-backend/auth-service/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const testRoleID = "test-role-0000-0000-000000000001"

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &database.PostgresConfig{
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "auth_db"),
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			age INT NOT NULL DEFAULT 0,
			gender VARCHAR(20) NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			role_id VARCHAR(36) NOT NULL REFERENCES roles(id),
			account_status VARCHAR(20) NOT NULL DEFAULT 'pending_activate',
			activation_code VARCHAR(60),
			refresh_token TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`INSERT INTO roles (id, name) VALUES ('` + testRoleID + `', 'TEST_ROLE')
			ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range statements {
		if _, err := db.Pool().Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to prepare schema: %v", err)
		}
	}

	return db
}

func cleanupTestData(t *testing.T, db *database.PostgresDB) {
	ctx := context.Background()
	_, err := db.Pool().Exec(ctx, "DELETE FROM users WHERE email LIKE 'test-%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
}

func newTestUser(email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordHash:   "$2a$04$notarealhashbutlongenoughtostore0000000000000000000",
		Name:           "Test User",
		Age:            30,
		Gender:         "other",
		Address:        "1 Test Street",
		RoleID:         testRoleID,
		AccountStatus:  domain.StatusPendingActivate,
		ActivationCode: uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPostgresUserRepository_CreateAndGet(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresUserRepository(db.Pool())
	ctx := context.Background()

	user := newTestUser("test-create@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	found, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if found == nil {
		t.Fatal("Expected user, got nil")
	}
	if found.Email != user.Email {
		t.Errorf("Expected email %s, got %s", user.Email, found.Email)
	}
	if found.AccountStatus != domain.StatusPendingActivate {
		t.Errorf("Expected status %s, got %s", domain.StatusPendingActivate, found.AccountStatus)
	}
	if found.ActivationCode != user.ActivationCode {
		t.Errorf("Expected activation code to round trip")
	}

	byEmail, err := repo.GetByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("GetByEmail returned wrong user")
	}
}

func TestPostgresUserRepository_GetMissing(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	repo := NewPostgresUserRepository(db.Pool())
	ctx := context.Background()

	found, err := repo.GetByID(ctx, "non-existent-id")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found != nil {
		t.Errorf("Expected nil for missing user, got %+v", found)
	}

	exists, err := repo.ExistsByEmail(ctx, "test-missing@example.com")
	if err != nil {
		t.Fatalf("ExistsByEmail() error = %v", err)
	}
	if exists {
		t.Error("Expected ExistsByEmail to be false")
	}
}

func TestPostgresUserRepository_RefreshTokenLifecycle(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresUserRepository(db.Pool())
	ctx := context.Background()

	user := newTestUser("test-refresh@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if err := repo.UpdateRefreshToken(ctx, user.ID, "token-one"); err != nil {
		t.Fatalf("UpdateRefreshToken() error = %v", err)
	}

	found, err := repo.GetByRefreshToken(ctx, "token-one")
	if err != nil {
		t.Fatalf("GetByRefreshToken() error = %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatal("Expected to find user by refresh token")
	}

	// CAS succeeds when the stored token still matches
	swapped, err := repo.SwapRefreshToken(ctx, user.ID, "token-one", "token-two")
	if err != nil {
		t.Fatalf("SwapRefreshToken() error = %v", err)
	}
	if !swapped {
		t.Error("Expected swap to succeed")
	}

	// CAS fails when the stored token was already replaced
	swapped, err = repo.SwapRefreshToken(ctx, user.ID, "token-one", "token-three")
	if err != nil {
		t.Fatalf("SwapRefreshToken() error = %v", err)
	}
	if swapped {
		t.Error("Expected swap against stale token to fail")
	}

	stale, err := repo.GetByRefreshToken(ctx, "token-one")
	if err != nil {
		t.Fatalf("GetByRefreshToken() error = %v", err)
	}
	if stale != nil {
		t.Error("Expected superseded token to no longer match")
	}

	// Logout clears the token
	if err := repo.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("UpdateRefreshToken() error = %v", err)
	}
	cleared, err := repo.GetByRefreshToken(ctx, "token-two")
	if err != nil {
		t.Fatalf("GetByRefreshToken() error = %v", err)
	}
	if cleared != nil {
		t.Error("Expected cleared token to no longer match")
	}
}

func TestPostgresUserRepository_Activate(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresUserRepository(db.Pool())
	ctx := context.Background()

	user := newTestUser("test-activate@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	found, err := repo.GetByActivationCode(ctx, user.ActivationCode)
	if err != nil {
		t.Fatalf("GetByActivationCode() error = %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatal("Expected to find user by activation code")
	}

	if err := repo.Activate(ctx, user.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	activated, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if activated.AccountStatus != domain.StatusActivated {
		t.Errorf("Expected status %s, got %s", domain.StatusActivated, activated.AccountStatus)
	}
	if activated.ActivationCode != "" {
		t.Errorf("Expected activation code cleared, got %q", activated.ActivationCode)
	}

	// Consumed code no longer resolves
	consumed, err := repo.GetByActivationCode(ctx, user.ActivationCode)
	if err != nil {
		t.Fatalf("GetByActivationCode() error = %v", err)
	}
	if consumed != nil {
		t.Error("Expected consumed activation code to no longer match")
	}
}
