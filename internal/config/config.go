package config

import "strings"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for the API surface.
type AuthConfig struct {
	// JWTSecret signs and verifies the bearer tokens presented by the
	// browser client. There is no user store; the token subject just
	// identifies the client installation.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all generation-related settings.
type LLMConfig struct {
	// GeminiAPIKeys is a comma-separated list of API keys for the
	// credential pool. It may be empty: the pool then issues empty
	// credentials and remote calls fail fast with a clear auth error.
	GeminiAPIKeys string `mapstructure:"gemini_api_keys"`

	// ModelName is the Gemini model identifier to generate with.
	ModelName string `mapstructure:"model_name" validate:"required"`

	// MaxAttempts is the total attempt budget per generation call.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`

	// BaseDelayMs is the backoff base delay in milliseconds.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"gte=1"`
}

// APIKeys splits the configured comma-separated key list. Empty entries
// are preserved here; the credential pool filters them.
func (c LLMConfig) APIKeys() []string {
	if c.GeminiAPIKeys == "" {
		return nil
	}
	return strings.Split(c.GeminiAPIKeys, ",")
}

// TaskConfig contains background worker settings.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}
