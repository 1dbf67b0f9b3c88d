package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "configs/routing.yaml", cfg.Gateway.RoutingTablePath)
	assert.Equal(t, 1, cfg.Gateway.DefaultMaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Gateway.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Gateway.DefaultTimeout)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.True(t, cfg.Providers.OpenAI.Enabled)
	assert.True(t, cfg.Gateway.BlockSecrets)
	assert.False(t, cfg.Gateway.BlockInjections)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("GATEWAY_DEFAULT_MAX_RETRIES", "3")
	t.Setenv("GATEWAY_RETRY_BASE_DELAY", "1s")
	t.Setenv("OPENAI_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Gateway.DefaultMaxRetries)
	assert.Equal(t, time.Second, cfg.Gateway.RetryBaseDelay)
	assert.False(t, cfg.Providers.OpenAI.Enabled)
}

func TestProviderAvailability(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_ENABLED", "true")
	// OpenRouter enabled but without credentials: unavailable.

	cfg, err := New()
	require.NoError(t, err)

	availability := cfg.ProviderAvailability()
	assert.True(t, availability["openai"])
	assert.False(t, availability["openrouter"])
}

func TestValidateProductionRequirements(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("ENVIRONMENT", "production")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")

	t.Setenv("JWT_SECRET", "super-secret")
	_, err = New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one LLM provider")

	t.Setenv("OPENROUTER_API_KEY", "or-test")
	cfg, err := New()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRejectsBadGatewaySettings(t *testing.T) {
	cfg := mustLoadRaw(t)
	cfg.Gateway.DefaultMaxRetries = -2
	assert.Error(t, cfg.Validate())

	cfg = mustLoadRaw(t)
	cfg.Gateway.DefaultTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = mustLoadRaw(t)
	cfg.Gateway.RoutingTablePath = ""
	assert.Error(t, cfg.Validate())
}

func mustLoadRaw(t *testing.T) *Config {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("GATEWAY_DEFAULT_MAX_RETRIES", "1")
	cfg, err := New()
	require.NoError(t, err)
	return cfg
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "tiber", Password: "pw",
		Database: "tiber", SSLMode: "require",
	}
	assert.Equal(t, "host=db.internal port=5432 user=tiber password=pw dbname=tiber sslmode=require", cfg.DSN())

	withURL := DatabaseConfig{ConnectionString: "postgres://tiber:pw@db.internal:5432/tiber"}
	assert.Equal(t, "postgres://tiber:pw@db.internal:5432/tiber", withURL.DSN())
	assert.NotContains(t, withURL.LogString(), "pw")
}
