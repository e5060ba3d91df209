package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Groq      GroqConfig
	Upload    UploadConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8006"`
}

// DatabaseConfig holds connection pool and resilience configuration.
type DatabaseConfig struct {
	URL            string        `envconfig:"DATABASE_URL"`
	PoolSize       int           `envconfig:"DB_POOL_SIZE" default:"5"`
	MaxOverflow    int           `envconfig:"DB_MAX_OVERFLOW" default:"10"`
	PoolTimeout    time.Duration `envconfig:"DB_POOL_TIMEOUT" default:"30s"`
	PoolRecycle    time.Duration `envconfig:"DB_POOL_RECYCLE" default:"1800s"`
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s"`
	EngineRetries  int           `envconfig:"DB_ENGINE_RETRIES" default:"5"`
	SchemaRetries  int           `envconfig:"DB_SCHEMA_RETRIES" default:"3"`
	SessionRetries int           `envconfig:"DB_SESSION_RETRIES" default:"3"`
	RetryBackoff   time.Duration `envconfig:"DB_RETRY_BACKOFF" default:"1s"`
	MaxFailures    int           `envconfig:"DB_BREAKER_MAX_FAILURES" default:"5"`
	Cooldown       time.Duration `envconfig:"DB_BREAKER_COOLDOWN" default:"300s"`
}

// GroqConfig holds the scoring API configuration.
type GroqConfig struct {
	APIURL      string        `envconfig:"GROQ_API_URL"`
	APIKey      string        `envconfig:"GROQ_API_KEY"`
	Model       string        `envconfig:"GROQ_MODEL" default:"mixtral-8x7b-32768"`
	Timeout     time.Duration `envconfig:"GROQ_TIMEOUT" default:"30s"`
	MaxRetries  int           `envconfig:"GROQ_MAX_RETRIES" default:"3"`
	MaxFailures int           `envconfig:"GROQ_BREAKER_MAX_FAILURES" default:"5"`
	Cooldown    time.Duration `envconfig:"GROQ_BREAKER_COOLDOWN" default:"300s"`
}

// UploadConfig holds file upload configuration.
type UploadConfig struct {
	Dir     string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxSize int64  `envconfig:"MAX_UPLOAD_SIZE" default:"10485760"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed origin configuration.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// Load loads configuration from environment variables. DATABASE_URL is
// the only required setting.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return &cfg, nil
}
