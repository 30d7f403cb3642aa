package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Debug     bool            `mapstructure:"debug"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadsConfig controls where media files land.
type UploadsConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

// CacheConfig controls page-cache lifetime.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// RateLimitConfig holds the per-bucket budgets. PostPerMinute and
// ReactPerMinute gate the expensive mutating endpoints; GlobalPerHour
// is the loose budget applied to every request.
type RateLimitConfig struct {
	PostPerMinute  int `mapstructure:"post_per_minute"`
	ReactPerMinute int `mapstructure:"react_per_minute"`
	GlobalPerHour  int `mapstructure:"global_per_hour"`
}

// SessionConfig holds the cookie-signing secret.
type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

// AdminConfig seeds the initial admin account (create-admin command).
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Best effort; absence of a .env file is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("database.host", getEnv("PG_HOST", "localhost"))
	viper.SetDefault("database.port", getEnvInt("PG_PORT", 5432))
	viper.SetDefault("database.user", getEnv("PG_USER", "postgres"))
	viper.SetDefault("database.password", getEnv("PG_PASSWORD", ""))
	viper.SetDefault("database.name", getEnv("PG_DATABASE", "blogforum"))
	viper.SetDefault("database.ssl_mode", getEnv("PG_SSL_MODE", "disable"))
	viper.SetDefault("server.host", getEnv("SERVER_HOST", "0.0.0.0"))
	viper.SetDefault("server.port", getEnvInt("SERVER_PORT", 8080))
	viper.SetDefault("uploads.dir", getEnv("UPLOAD_DIR", "static/uploads"))
	viper.SetDefault("uploads.max_size_mb", getEnvInt("UPLOAD_MAX_SIZE_MB", 50))
	viper.SetDefault("cache.ttl_seconds", getEnvInt("CACHE_TTL_SECONDS", 60))
	viper.SetDefault("rate_limit.post_per_minute", getEnvInt("RATE_POST_PER_MINUTE", 10))
	viper.SetDefault("rate_limit.react_per_minute", getEnvInt("RATE_REACT_PER_MINUTE", 10))
	viper.SetDefault("rate_limit.global_per_hour", getEnvInt("RATE_GLOBAL_PER_HOUR", 200))
	viper.SetDefault("session.secret", getEnv("SESSION_SECRET", "dev-only-secret"))
	viper.SetDefault("admin.username", getEnv("ADMIN_USERNAME", "admin"))
	viper.SetDefault("admin.email", getEnv("ADMIN_EMAIL", "admin@example.com"))
	viper.SetDefault("admin.password", getEnv("ADMIN_PASSWORD", ""))
	viper.SetDefault("debug", getEnv("DEBUG", "") != "")

	// Enable environment variable support
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we'll use defaults and env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
