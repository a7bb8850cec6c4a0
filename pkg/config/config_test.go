package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "auth-service", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "auth_db", cfg.Database.DBName)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "from server", cfg.JWT.Issuer)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Auth.LockoutMaxFails)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.OTel.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadWithPath("nonexistent.env")
		require.NoError(t, err)
		return cfg
	}

	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects equal secrets", func(t *testing.T) {
		cfg := valid()
		cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects missing secret", func(t *testing.T) {
		cfg := valid()
		cfg.JWT.AccessSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects default secrets in production", func(t *testing.T) {
		cfg := valid()
		cfg.App.Environment = "production"
		assert.Error(t, cfg.Validate())

		cfg.JWT.AccessSecret = "a-real-production-secret"
		cfg.JWT.RefreshSecret = "another-real-production-secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects invalid bcrypt cost", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.BcryptCost = 2
		assert.Error(t, cfg.Validate())

		cfg.Auth.BcryptCost = 32
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{}
	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())

	cfg.App.Environment = "development"
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.IsDevelopment())
}
