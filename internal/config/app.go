package config

import (
	"fmt"
	"time"

	"tutor-app/internal/logger"

	"github.com/caarlos0/env/v6"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderGenkit = "genkit"
)

const minJWTSecretLength = 32

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SQLite   SQLiteConfig
	LLM      LLMConfig
	Auth     AuthConfig

	ModelsPath string `env:"MODELS_CONFIG_PATH"`
	Models     *ModelsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port     string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig selects the store backend
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" envDefault:"memory"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"postgres"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"tutor"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"tutor"`
}

// SQLiteConfig holds the sqlite file location
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"tutor.db"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider        string        `env:"LLM_PROVIDER" envDefault:"openai"`
	APIKey          string        `env:"LLM_API_KEY"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	BaseURL         string        `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model           string        `env:"LLM_MODEL"`
	MaxOutputTokens int           `env:"LLM_MAX_OUTPUT_TOKENS" envDefault:"1000"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenExpiration time.Duration `env:"JWT_TOKEN_EXPIRATION" envDefault:"24h"`
	Required        bool          `env:"AUTH_REQUIRED" envDefault:"false"`
	DefaultUsername string        `env:"DEFAULT_USERNAME" envDefault:"demo"`
	DefaultPassword string        `env:"DEFAULT_PASSWORD" envDefault:"demo123"`
}

// TokensEnabled reports whether register/login can issue tokens
func (c *AuthConfig) TokensEnabled() bool {
	return c.JWTSecret != ""
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (*AppConfig, error) {
	config := &AppConfig{}
	if err := env.Parse(config, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if config.LLM.APIKey == "" {
		config.LLM.APIKey = config.LLM.GeminiAPIKey
	}
	if config.LLM.APIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY or GEMINI_API_KEY environment variable must be set")
	}

	switch config.LLM.Provider {
	case ProviderOpenAI, ProviderGenkit:
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", config.LLM.Provider)
	}
	if config.LLM.MaxOutputTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be positive")
	}

	switch config.Storage.Backend {
	case StorageMemory, StoragePostgres, StorageRedis, StorageSQLite:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", config.Storage.Backend)
	}

	if secret := config.Auth.JWTSecret; secret != "" && len(secret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters (current length: %d)", minJWTSecretLength, len(secret))
	}
	if config.Auth.Required && !config.Auth.TokensEnabled() {
		return nil, fmt.Errorf("AUTH_REQUIRED needs JWT_SECRET to be set")
	}
	if !config.Auth.TokensEnabled() {
		logger.Log.Warn("JWT_SECRET not set, register and login are disabled")
	}

	models := DefaultModelsConfig()
	if path := config.ModelsPath; path != "" {
		loaded, err := NewModelsConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load models config: %w", err)
		}
		models = loaded
	}
	config.Models = models

	if config.LLM.Model == "" {
		config.LLM.Model = models.GetDefaultModel()
	}
	if !models.IsValidModel(config.LLM.Model) {
		return nil, fmt.Errorf("LLM_MODEL %q is not in the models list", config.LLM.Model)
	}

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
