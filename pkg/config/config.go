package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Vector   VectorConfig
	Admin    AdminConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// AuthConfig holds bearer-token verification configuration.
// When JWKSURL is empty the bearer middleware is disabled and routes
// are scoped by the x-tenant-id header alone (local development).
// LocalJWKS accepts an inline JSON key set so tests can verify tokens
// without fetching a remote key set.
type AuthConfig struct {
	JWKSURL   string
	Issuer    string
	Audience  string
	LocalJWKS string
}

// AIConfig holds chat/embedding model provider configuration
type AIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	TopP           float64
	MaxTokens      int
	Timeout        time.Duration
}

// VectorConfig holds vector index (Qdrant) configuration.
// Vector retrieval is enabled only when URL is set.
type VectorConfig struct {
	URL          string
	APIKey       string
	Collection   string
	TopK         int
	FallbackTopK int
	Timeout      time.Duration
}

// AdminConfig holds the admin API key protecting reindex routes
type AdminConfig struct {
	APIKey string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8086"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "hvac_ai"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		Auth: AuthConfig{
			JWKSURL:   getEnv("AUTH_JWKS_URL", ""),
			Issuer:    getEnv("AUTH_ISSUER", ""),
			Audience:  getEnv("AUTH_AUDIENCE", ""),
			LocalJWKS: getEnv("AUTH_LOCAL_JWKS", ""),
		},
		AI: AIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ChatModel:      getEnv("AI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("AI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Temperature:    getEnvAsFloat("AI_TEMPERATURE", 0.2),
			TopP:           getEnvAsFloat("AI_TOP_P", 1.0),
			MaxTokens:      getEnvAsInt("AI_MAX_TOKENS", 1024),
			Timeout:        getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		Vector: VectorConfig{
			URL:          getEnv("QDRANT_URL", ""),
			APIKey:       getEnv("QDRANT_API_KEY", ""),
			Collection:   getEnv("QDRANT_COLLECTION", "job_evidence"),
			TopK:         getEnvAsInt("VECTOR_TOP_K", 5),
			FallbackTopK: getEnvAsInt("VECTOR_FALLBACK_TOP_K", 20),
			Timeout:      getEnvAsDuration("QDRANT_TIMEOUT", 15*time.Second),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "hvac_ai"),
		},
	}, nil
}

// VectorEnabled reports whether vector retrieval infrastructure is configured.
func (c *Config) VectorEnabled() bool {
	return c.Vector.URL != ""
}

// AuthEnabled reports whether bearer-token verification is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWKSURL != "" || c.Auth.LocalJWKS != ""
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
