// Package config loads and validates gateway configuration from the
// environment. The routing table itself lives in a YAML file referenced by
// ROUTING_TABLE_PATH; everything else is env vars layered over defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Providers     ProvidersConfig
	Gateway       GatewayConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration for usage records.
// When ConnectionString (from DATABASE_URL) is set it takes precedence over
// the individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds bearer-token authentication settings.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 tokens. Required in production.
	JWTSecret string
	// Issuer is the expected "iss" claim. Empty disables the check.
	Issuer string
}

// ProvidersConfig holds per-backend adapter settings.
type ProvidersConfig struct {
	OpenAI     ProviderConfig
	OpenRouter ProviderConfig
}

// ProviderConfig holds the settings for a single backend.
type ProviderConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Configured reports whether the provider can actually be used: explicitly
// enabled and carrying credentials. This drives the availability registry.
func (p ProviderConfig) Configured() bool {
	return p.Enabled && p.APIKey != ""
}

// GatewayConfig holds orchestrator settings.
type GatewayConfig struct {
	// RoutingTablePath points at the YAML routing table.
	RoutingTablePath string
	// DefaultMaxRetries is the per-candidate retry budget for routed
	// requests that do not carry their own.
	DefaultMaxRetries int
	// RetryBaseDelay seeds the jittered backoff between transient retries.
	RetryBaseDelay time.Duration
	// DefaultTimeout applies when a request omits its per-attempt timeout.
	DefaultTimeout time.Duration
	// BlockSecrets rejects requests whose messages carry credential-shaped
	// content before any backend sees them.
	BlockSecrets bool
	// BlockInjections rejects obvious instruction-override attempts.
	BlockInjections bool
}

// ObservabilityConfig holds logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New loads configuration from the environment, layering a .env file first
// when present.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				Enabled: getEnvAsBool("OPENAI_ENABLED", true),
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			},
			OpenRouter: ProviderConfig{
				Enabled: getEnvAsBool("OPENROUTER_ENABLED", true),
				APIKey:  getEnv("OPENROUTER_API_KEY", ""),
				BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				Timeout: getEnvAsDuration("OPENROUTER_TIMEOUT", 60*time.Second),
			},
		},
		Gateway: GatewayConfig{
			RoutingTablePath:  getEnv("ROUTING_TABLE_PATH", "configs/routing.yaml"),
			DefaultMaxRetries: getEnvAsInt("GATEWAY_DEFAULT_MAX_RETRIES", 1),
			RetryBaseDelay:    getEnvAsDuration("GATEWAY_RETRY_BASE_DELAY", 250*time.Millisecond),
			DefaultTimeout:    getEnvAsDuration("GATEWAY_DEFAULT_TIMEOUT", 30*time.Second),
			BlockSecrets:      getEnvAsBool("GATEWAY_BLOCK_SECRETS", true),
			BlockInjections:   getEnvAsBool("GATEWAY_BLOCK_INJECTIONS", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and construction-time invariants.
func (c *Config) Validate() error {
	if c.Gateway.RoutingTablePath == "" {
		return fmt.Errorf("routing table path is required")
	}
	if c.Gateway.DefaultMaxRetries < 0 {
		return fmt.Errorf("default max retries must not be negative")
	}
	if c.Gateway.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive")
	}
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required in production")
		}
		if !c.Providers.OpenAI.Configured() && !c.Providers.OpenRouter.Configured() {
			return fmt.Errorf("at least one LLM provider must be configured in production")
		}
	}
	return nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ProviderAvailability derives the initial availability map from
// configuration: a provider is usable when enabled with credentials present.
func (c *Config) ProviderAvailability() map[string]bool {
	return map[string]bool{
		"openai":     c.Providers.OpenAI.Configured(),
		"openrouter": c.Providers.OpenRouter.Configured(),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a connection description safe for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDatabaseConfig() DatabaseConfig {
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "tiber"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "tiber"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
